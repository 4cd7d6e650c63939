package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

const cloudflareAPIURL = "https://api.cloudflare.com/client/v4"

// PagesDeployer provisions a Cloudflare Pages project per order and, when a
// repository deployment already happened, connects the project to it so
// pushes publish automatically.
type PagesDeployer struct {
	creds  CredentialSource
	client *http.Client
}

var _ interfaces.Deployer = (*PagesDeployer)(nil)

func NewPagesDeployer(creds CredentialSource) *PagesDeployer {
	return &PagesDeployer{
		creds:  creds,
		client: &http.Client{Timeout: time.Minute},
	}
}

func (d *PagesDeployer) Name() consts.DeployProvider {
	return consts.ProviderPages
}

func (d *PagesDeployer) Deploy(ctx context.Context, req interfaces.DeployRequest) (*interfaces.DeployResult, error) {
	creds, err := d.creds.Get(ctx, consts.IntegrationCloudflare)
	if err != nil {
		return nil, err
	}
	token, err := creds.Require(consts.IntegrationCloudflare, "api_token")
	if err != nil {
		return nil, err
	}
	accountID, err := creds.Require(consts.IntegrationCloudflare, "account_id")
	if err != nil {
		return nil, err
	}
	apiURL := creds.Get("base_url")
	if apiURL == "" {
		apiURL = cloudflareAPIURL
	}
	domain := creds.Get("pages_domain")
	if domain == "" {
		domain = "pages.dev"
	}

	projectName := fmt.Sprintf("site-order-%d", req.Order.ID)
	if prior, ok := req.Prior[consts.ProviderPages]; ok && prior.ExternalID != "" {
		projectName = prior.ExternalID
	}

	cf := &cloudflareAPI{client: d.client, baseURL: strings.TrimSuffix(apiURL, "/"), token: token}
	if err := cf.ensureProject(ctx, accountID, projectName, req.Prior); err != nil {
		return nil, err
	}

	return &interfaces.DeployResult{
		ExternalID: projectName,
		URL:        fmt.Sprintf("https://%s.%s", projectName, domain),
	}, nil
}

type cloudflareAPI struct {
	client  *http.Client
	baseURL string
	token   string
}

func (c *cloudflareAPI) ensureProject(ctx context.Context, accountID, name string, prior map[consts.DeployProvider]db.Deployment) error {
	path := fmt.Sprintf("/accounts/%s/pages/projects/%s", accountID, name)
	status, _, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return errs.ProviderError{Provider: "pages", Err: fmt.Errorf("unexpected status %d checking project", status)}
	}

	body := map[string]any{"name": name, "production_branch": "main"}
	if repo, ok := prior[consts.ProviderGitHub]; ok && repo.Status == consts.DeploymentSucceeded && repo.ExternalID != "" {
		if owner, repoName, found := strings.Cut(repo.ExternalID, "/"); found {
			// Source connection needs the GitHub app installed on the
			// account. When it is not, project creation still succeeds
			// without a source, so this stays best effort.
			body["source"] = map[string]any{
				"type": "github",
				"config": map[string]any{
					"owner":             owner,
					"repo_name":         repoName,
					"production_branch": "main",
				},
			}
		}
	}

	createPath := fmt.Sprintf("/accounts/%s/pages/projects", accountID)
	status, payload, err := c.do(ctx, http.MethodPost, createPath, body)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	if _, hasSource := body["source"]; hasSource {
		slog.Warn("pages project creation with source failed, retrying without", "project", name, "status", status)
		delete(body, "source")
		status, payload, err = c.do(ctx, http.MethodPost, createPath, body)
		if err != nil {
			return err
		}
		if status == http.StatusOK || status == http.StatusCreated {
			return nil
		}
	}
	return errs.ProviderError{Provider: "pages", Payload: payload, Err: fmt.Errorf("unexpected status %d creating project", status)}
}

func (c *cloudflareAPI) do(ctx context.Context, method, path string, in any) (int, string, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, "", err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", errs.ProviderError{Provider: "pages", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", errs.ProviderError{Provider: "pages", Err: err}
	}
	return resp.StatusCode, string(payload), nil
}
