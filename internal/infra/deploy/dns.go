package deploy

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

// DNSDeployer points a per-order subdomain at the hosted site with a CNAME
// upsert, so rerunning a deployment is safe.
type DNSDeployer struct {
	creds CredentialSource
}

var _ interfaces.Deployer = (*DNSDeployer)(nil)

func NewDNSDeployer(creds CredentialSource) *DNSDeployer {
	return &DNSDeployer{creds: creds}
}

func (d *DNSDeployer) Name() consts.DeployProvider {
	return consts.ProviderDNS
}

func (d *DNSDeployer) Deploy(ctx context.Context, req interfaces.DeployRequest) (*interfaces.DeployResult, error) {
	creds, err := d.creds.Get(ctx, consts.IntegrationDNS)
	if err != nil {
		return nil, err
	}
	zoneID, err := creds.Require(consts.IntegrationDNS, "hosted_zone_id")
	if err != nil {
		return nil, err
	}
	zoneName, err := creds.Require(consts.IntegrationDNS, "zone_name")
	if err != nil {
		return nil, err
	}

	target, err := cnameTarget(req.Prior)
	if err != nil {
		return nil, err
	}

	client, err := d.initClient(ctx, creds)
	if err != nil {
		return nil, err
	}

	recordName := fmt.Sprintf("site-%d.%s", req.Order.ID, strings.TrimSuffix(zoneName, "."))
	if current, lookupErr := d.currentTarget(ctx, client, zoneID, recordName); lookupErr == nil && current == target {
		return &interfaces.DeployResult{
			ExternalID: recordName,
			URL:        "https://" + recordName,
			Detail:     "CNAME " + target + " (unchanged)",
		}, nil
	}
	_, err = client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{{
				Action: types.ChangeActionUpsert,
				ResourceRecordSet: &types.ResourceRecordSet{
					Name:            aws.String(recordName),
					Type:            types.RRTypeCname,
					TTL:             aws.Int64(300),
					ResourceRecords: []types.ResourceRecord{{Value: aws.String(target)}},
				},
			}},
		},
	})
	if err != nil {
		return nil, errs.ProviderError{Provider: "dns", Err: fmt.Errorf("err upserting record %s, %v", recordName, err)}
	}

	return &interfaces.DeployResult{
		ExternalID: recordName,
		URL:        "https://" + recordName,
		Detail:     "CNAME " + target,
	}, nil
}

// currentTarget reads the record as it stands, so an unchanged alias skips
// the write entirely.
func (d *DNSDeployer) currentTarget(ctx context.Context, client *route53.Client, zoneID, recordName string) (string, error) {
	out, err := client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(recordName),
		StartRecordType: types.RRTypeCname,
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("err listing records, %v", err)
	}
	for _, set := range out.ResourceRecordSets {
		if strings.TrimSuffix(aws.ToString(set.Name), ".") == recordName && set.Type == types.RRTypeCname {
			for _, record := range set.ResourceRecords {
				return aws.ToString(record.Value), nil
			}
		}
	}
	return "", nil
}

func (d *DNSDeployer) initClient(ctx context.Context, creds Credentials) (*route53.Client, error) {
	opts := []func(*awsConfig.LoadOptions) error{}
	if accessKey := creds.Get("access_key_id"); accessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, creds.Get("secret_access_key"), "")))
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("err loading dns config, %v", err)
	}
	return route53.NewFromConfig(cfg), nil
}

// cnameTarget resolves what the subdomain should point at. A hosting
// deployment wins, a repository's pages host is useless, so without hosting
// there is nothing to alias.
func cnameTarget(prior map[consts.DeployProvider]db.Deployment) (string, error) {
	hosting, ok := prior[consts.ProviderPages]
	if !ok || hosting.Status != consts.DeploymentSucceeded || hosting.URL == "" {
		return "", errs.ProviderError{Provider: "dns", Err: fmt.Errorf("no hosting deployment to point dns at")}
	}
	parsed, err := url.Parse(hosting.URL)
	if err != nil || parsed.Host == "" {
		return "", errs.ProviderError{Provider: "dns", Err: fmt.Errorf("hosting url %q is not usable", hosting.URL)}
	}
	return parsed.Host, nil
}
