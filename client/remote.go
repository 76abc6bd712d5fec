package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nlpipe/nlpipe/store"
)

const errorMIME = "application/prs.error+text"

// Remote implements Client by speaking the REST facade's wire protocol over
// HTTP, matching the original project's HTTPClient. No third-party HTTP
// client library appears anywhere in the retrieval pack, so this wraps
// net/http directly rather than inventing a dependency the corpus never
// reached for; see DESIGN.md.
type Remote struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewRemote returns a Remote client against baseURL, authenticating with
// token when non-empty.
func NewRemote(baseURL, token string) *Remote {
	return &Remote{BaseURL: baseURL, Token: token, HTTP: http.DefaultClient}
}

func (c *Remote) do(method, path string, query url.Values, body []byte, contentType string) (*http.Response, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return nil, errorf("do", "%s %s: %w", method, path, err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Token "+c.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errorf("do", "%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Remote) Status(module, id string) (store.Status, error) {
	resp, err := c.do(http.MethodHead, "/api/modules/"+module+"/"+id, nil, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden {
		return "", errorf("Status", "%s/%s: 403 forbidden, check token", module, id)
	}
	status := resp.Header.Get("Status")
	if status == "" {
		return "", errorf("Status", "%s/%s: no Status header (code %d)", module, id, resp.StatusCode)
	}
	return store.Status(status), nil
}

func (c *Remote) Process(module string, doc []byte, opts ProcessOptions) (string, error) {
	query := url.Values{}
	if opts.ID != "" {
		query.Set("id", opts.ID)
	}
	if opts.ResetError {
		query.Set("reset_error", "true")
	}
	if opts.ResetPending {
		query.Set("reset_pending", "true")
	}
	resp, err := c.do(http.MethodPost, "/api/modules/"+module+"/", query, doc, "text/plain; charset=utf-8")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", errorf("Process", "%s: unexpected status %d: %s", module, resp.StatusCode, readAll(resp))
	}
	return resp.Header.Get("ID"), nil
}

func (c *Remote) Result(module, id, format string) ([]byte, error) {
	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}
	resp, err := c.do(http.MethodGet, "/api/modules/"+module+"/"+id, query, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errorf("Result", "%s/%s: unexpected status %d: %s", module, id, resp.StatusCode, readAll(resp))
	}
	return io.ReadAll(resp.Body)
}

func (c *Remote) GetTask(module string) (string, []byte, error) {
	resp, err := c.do(http.MethodGet, "/api/modules/"+module+"/", nil, nil, "")
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", nil, ErrNoTask
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, errorf("GetTask", "%s: unexpected status %d: %s", module, resp.StatusCode, readAll(resp))
	}
	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, errorf("GetTask", "%s: %w", module, err)
	}
	return resp.Header.Get("ID"), doc, nil
}

func (c *Remote) StoreResult(module, id string, result []byte) error {
	resp, err := c.do(http.MethodPut, "/api/modules/"+module+"/"+id, nil, result, "text/plain; charset=utf-8")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return errorf("StoreResult", "%s/%s: unexpected status %d: %s", module, id, resp.StatusCode, readAll(resp))
	}
	return nil
}

func (c *Remote) StoreError(module, id string, message []byte) error {
	resp, err := c.do(http.MethodPut, "/api/modules/"+module+"/"+id, nil, message, errorMIME)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return errorf("StoreError", "%s/%s: unexpected status %d: %s", module, id, resp.StatusCode, readAll(resp))
	}
	return nil
}

func (c *Remote) BulkStatus(module string, ids []string) (map[string]store.Status, error) {
	body, err := json.Marshal(ids)
	if err != nil {
		return nil, errorf("BulkStatus", "%s: %w", module, err)
	}
	resp, err := c.do(http.MethodPost, "/api/modules/"+module+"/bulk/status", nil, body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errorf("BulkStatus", "%s: unexpected status %d: %s", module, resp.StatusCode, readAll(resp))
	}
	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errorf("BulkStatus", "%s: decode response: %w", module, err)
	}
	out := make(map[string]store.Status, len(raw))
	for id, s := range raw {
		out[id] = store.Status(s)
	}
	return out, nil
}

func (c *Remote) BulkResult(module string, ids []string, format string) (map[string][]byte, error) {
	body, err := json.Marshal(ids)
	if err != nil {
		return nil, errorf("BulkResult", "%s: %w", module, err)
	}
	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}
	resp, err := c.do(http.MethodPost, "/api/modules/"+module+"/bulk/result", query, body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errorf("BulkResult", "%s: unexpected status %d: %s", module, resp.StatusCode, readAll(resp))
	}
	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errorf("BulkResult", "%s: decode response: %w", module, err)
	}
	out := make(map[string][]byte, len(raw))
	for id, v := range raw {
		out[id] = []byte(v)
	}
	return out, nil
}

func (c *Remote) BulkProcess(module string, docs [][]byte, ids []string, resetError, resetPending bool) ([]string, error) {
	var body []byte
	var err error
	if len(ids) == len(docs) && len(ids) > 0 {
		m := make(map[string]string, len(docs))
		for i, doc := range docs {
			m[ids[i]] = string(doc)
		}
		body, err = json.Marshal(m)
	} else {
		list := make([]string, len(docs))
		for i, doc := range docs {
			list[i] = string(doc)
		}
		body, err = json.Marshal(list)
	}
	if err != nil {
		return nil, errorf("BulkProcess", "%s: %w", module, err)
	}

	query := url.Values{
		"reset_error":   []string{strconv.FormatBool(resetError)},
		"reset_pending": []string{strconv.FormatBool(resetPending)},
	}
	resp, err := c.do(http.MethodPost, "/api/modules/"+module+"/bulk/process", query, body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errorf("BulkProcess", "%s: unexpected status %d: %s", module, resp.StatusCode, readAll(resp))
	}
	var out []string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errorf("BulkProcess", "%s: decode response: %w", module, err)
	}
	return out, nil
}

func (c *Remote) Statistics(module string) (map[store.Status]int, error) {
	return nil, errorf("Statistics", "%s: %w", module, fmt.Errorf("not exposed over the remote protocol"))
}

func readAll(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
