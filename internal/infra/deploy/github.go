package deploy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
)

const githubAPIURL = "https://api.github.com"

// GitHubDeployer pushes an order's workspace to a repository as a single
// snapshot commit. Credentials are read on first use so rotated tokens
// apply without a restart.
type GitHubDeployer struct {
	creds  CredentialSource
	client *http.Client
}

var _ interfaces.Deployer = (*GitHubDeployer)(nil)

func NewGitHubDeployer(creds CredentialSource) *GitHubDeployer {
	return &GitHubDeployer{
		creds:  creds,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (d *GitHubDeployer) Name() consts.DeployProvider {
	return consts.ProviderGitHub
}

func (d *GitHubDeployer) Deploy(ctx context.Context, req interfaces.DeployRequest) (*interfaces.DeployResult, error) {
	creds, err := d.creds.Get(ctx, consts.IntegrationGitHub)
	if err != nil {
		return nil, err
	}
	token, err := creds.Require(consts.IntegrationGitHub, "token")
	if err != nil {
		return nil, err
	}
	owner, err := creds.Require(consts.IntegrationGitHub, "owner")
	if err != nil {
		return nil, err
	}
	apiURL := creds.Get("base_url")
	if apiURL == "" {
		apiURL = githubAPIURL
	}

	repoName := fmt.Sprintf("site-order-%d", req.Order.ID)
	if prior, ok := req.Prior[consts.ProviderGitHub]; ok && prior.ExternalID != "" {
		// Reuse the repository from an earlier attempt.
		if _, name, found := strings.Cut(prior.ExternalID, "/"); found {
			repoName = name
		}
	}

	gh := &githubAPI{client: d.client, baseURL: strings.TrimSuffix(apiURL, "/"), token: token}
	if err := gh.ensureRepo(ctx, owner, repoName); err != nil {
		return nil, err
	}
	if err := gh.pushSnapshot(ctx, owner, repoName, req.WorkspaceDir,
		fmt.Sprintf("Site generation for order %d", req.Order.ID)); err != nil {
		return nil, err
	}

	return &interfaces.DeployResult{
		ExternalID: owner + "/" + repoName,
		URL:        fmt.Sprintf("https://github.com/%s/%s", owner, repoName),
	}, nil
}

type githubAPI struct {
	client  *http.Client
	baseURL string
	token   string
}

func (g *githubAPI) ensureRepo(ctx context.Context, owner, name string) error {
	status, _, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s", owner, name), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return errs.ProviderError{Provider: "github", Err: fmt.Errorf("unexpected status %d checking repo", status)}
	}

	body := map[string]any{"name": name, "private": true, "auto_init": true}
	status, payload, err := g.do(ctx, http.MethodPost, "/user/repos", body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return errs.ProviderError{Provider: "github", Payload: payload, Err: fmt.Errorf("unexpected status %d creating repo", status)}
	}
	return nil
}

// pushSnapshot writes the whole workspace as one commit on main, replacing
// the previous tree entirely.
func (g *githubAPI) pushSnapshot(ctx context.Context, owner, repo, dir, message string) error {
	type treeEntry struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	}
	var entries []treeEntry

	base := fmt.Sprintf("/repos/%s/%s", owner, repo)
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var blob struct {
			SHA string `json:"sha"`
		}
		status, payload, err := g.do(ctx, http.MethodPost, base+"/git/blobs", map[string]any{
			"content":  base64.StdEncoding.EncodeToString(raw),
			"encoding": "base64",
		}, &blob)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			return errs.ProviderError{Provider: "github", Payload: payload, Err: fmt.Errorf("unexpected status %d creating blob", status)}
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries = append(entries, treeEntry{Path: filepath.ToSlash(rel), Mode: "100644", Type: "blob", SHA: blob.SHA})
		return nil
	})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errs.ProviderError{Provider: "github", Err: fmt.Errorf("workspace %s has no files", dir)}
	}

	var tree struct {
		SHA string `json:"sha"`
	}
	status, payload, err := g.do(ctx, http.MethodPost, base+"/git/trees", map[string]any{"tree": entries}, &tree)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return errs.ProviderError{Provider: "github", Payload: payload, Err: fmt.Errorf("unexpected status %d creating tree", status)}
	}

	var parents []string
	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	status, _, err = g.do(ctx, http.MethodGet, base+"/git/ref/heads/main", nil, &ref)
	if err != nil {
		return err
	}
	if status == http.StatusOK && ref.Object.SHA != "" {
		parents = append(parents, ref.Object.SHA)
	}

	var commit struct {
		SHA string `json:"sha"`
	}
	status, payload, err = g.do(ctx, http.MethodPost, base+"/git/commits", map[string]any{
		"message": message,
		"tree":    tree.SHA,
		"parents": parents,
	}, &commit)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return errs.ProviderError{Provider: "github", Payload: payload, Err: fmt.Errorf("unexpected status %d creating commit", status)}
	}

	if len(parents) > 0 {
		status, payload, err = g.do(ctx, http.MethodPatch, base+"/git/refs/heads/main", map[string]any{
			"sha":   commit.SHA,
			"force": true,
		}, nil)
	} else {
		status, payload, err = g.do(ctx, http.MethodPost, base+"/git/refs", map[string]any{
			"ref": "refs/heads/main",
			"sha": commit.SHA,
		}, nil)
	}
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return errs.ProviderError{Provider: "github", Payload: payload, Err: fmt.Errorf("unexpected status %d updating ref", status)}
	}
	return nil
}

func (g *githubAPI) do(ctx context.Context, method, path string, in any, out any) (int, string, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, "", err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, "", errs.ProviderError{Provider: "github", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", errs.ProviderError{Provider: "github", Err: err}
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(payload, out); err != nil {
			return resp.StatusCode, string(payload), errs.ProviderError{Provider: "github", Payload: string(payload), Err: err}
		}
	}
	return resp.StatusCode, string(payload), nil
}
