// Package controlfile talks to the ControlFile backend over HTTP. It
// implements the folder and binary collaborator interfaces: folders are
// created idempotently, binaries go through a presign, direct PUT and
// confirm handshake.
package controlfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/controlsuite/auditfiles/internal/common"
	"github.com/controlsuite/auditfiles/internal/logging"
	"github.com/controlsuite/auditfiles/internal/storage"
)

const defaultTimeout = 60 * time.Second

// Client is an HTTP client for the ControlFile backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger
}

func NewClient(baseURL string, tokens TokenSource, log logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		log:     log,
	}
}

type folderCreateRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

type folderCreateResponse struct {
	FolderID string `json:"folderId"`
}

// EnsureFolder creates a folder under parent or returns the existing one
// with the same name. An empty parent means the account root.
func (c *Client) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	var out folderCreateResponse
	err := c.post(ctx, "/api/folders/create", folderCreateRequest{Name: name, ParentID: parentID}, &out)
	if err != nil {
		return "", fmt.Errorf("ensure folder %q: %w", name, err)
	}
	return out.FolderID, nil
}

type presignRequest struct {
	Name     string          `json:"name"`
	Size     int64           `json:"size"`
	MIME     string          `json:"mime"`
	ParentID string          `json:"parentId"`
	Metadata presignMetadata `json:"metadata"`
}

type presignMetadata struct {
	Source       string            `json:"source"`
	CustomFields map[string]string `json:"customFields"`
}

type presignResponse struct {
	UploadURL string `json:"uploadUrl"`
	UploadID  string `json:"uploadId"`
}

type confirmRequest struct {
	UploadID string `json:"uploadId"`
}

type confirmResponse struct {
	FileID     string `json:"fileId"`
	ShareToken string `json:"shareToken"`
}

// UploadBinary transfers file bytes into folderID carrying the flattened
// context metadata as custom fields.
func (c *Client) UploadBinary(ctx context.Context, file storage.FileInput, folderID string, metadata map[string]string) (*storage.UploadedFile, error) {
	var pres presignResponse
	req := presignRequest{
		Name:     file.Name,
		Size:     file.Size,
		MIME:     file.MIME,
		ParentID: folderID,
		Metadata: presignMetadata{Source: "navbar", CustomFields: metadata},
	}
	if err := c.post(ctx, "/api/uploads/presign", req, &pres); err != nil {
		return nil, fmt.Errorf("presign %q: %w", file.Name, err)
	}

	if err := c.putPresigned(ctx, pres.UploadURL, file); err != nil {
		return nil, fmt.Errorf("transfer %q: %w", file.Name, err)
	}

	var conf confirmResponse
	if err := c.post(ctx, "/api/uploads/confirm", confirmRequest{UploadID: pres.UploadID}, &conf); err != nil {
		return nil, fmt.Errorf("confirm %q: %w", file.Name, err)
	}

	c.log.Debug(ctx, "upload confirmed", "file", file.Name, "fileId", conf.FileID)
	return &storage.UploadedFile{FileID: conf.FileID, ShareToken: conf.ShareToken}, nil
}

// putPresigned writes the raw bytes to a presigned URL. The URL already
// carries its own authorization, so no bearer token is attached.
func (c *Client) putPresigned(ctx context.Context, uploadURL string, file storage.FileInput) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(file.Data))
	if err != nil {
		return err
	}
	ct := file.MIME
	if ct == "" {
		ct = "application/octet-stream"
	}
	req.Header.Set("Content-Type", ct)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}

type remoteFileDTO struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	MIME       string            `json:"mime"`
	Size       int64             `json:"size"`
	ParentID   string            `json:"parentId"`
	UserID     string            `json:"userId"`
	ShareToken string            `json:"shareToken"`
	CreatedAt  time.Time         `json:"createdAt"`
	Metadata   map[string]string `json:"metadata"`
}

func (d remoteFileDTO) toRemoteFile() storage.RemoteFile {
	return storage.RemoteFile{
		ID:         d.ID,
		Name:       d.Name,
		MIME:       d.MIME,
		Size:       d.Size,
		ParentID:   d.ParentID,
		UserID:     d.UserID,
		ShareToken: d.ShareToken,
		CreatedAt:  d.CreatedAt,
		Metadata:   d.Metadata,
	}
}

// List returns the files directly under a folder.
func (c *Client) List(ctx context.Context, folderID string) ([]storage.RemoteFile, error) {
	q := url.Values{"parentId": {folderID}}
	var out struct {
		Files []remoteFileDTO `json:"files"`
	}
	if err := c.get(ctx, "/api/files/list?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("list folder %q: %w", folderID, err)
	}
	files := make([]storage.RemoteFile, 0, len(out.Files))
	for _, d := range out.Files {
		files = append(files, d.toRemoteFile())
	}
	return files, nil
}

// FileInfo fetches a single file record by id.
func (c *Client) FileInfo(ctx context.Context, fileID string) (*storage.RemoteFile, error) {
	var out remoteFileDTO
	if err := c.get(ctx, "/api/files/"+url.PathEscape(fileID), &out); err != nil {
		return nil, fmt.Errorf("file %q: %w", fileID, err)
	}
	rf := out.toRemoteFile()
	return &rf, nil
}

// Ping checks backend reachability. A short deadline keeps the online
// watcher responsive when the network is down.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	token, err := c.tokens.Token(req.Context())
	if err != nil {
		return fmt.Errorf("auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return common.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s; body: %s", req.Method, req.URL.Path, resp.Status, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
