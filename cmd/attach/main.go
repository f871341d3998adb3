// Command attach uploads a file to a task attachment slot, or downloads
// the current attachment, through a running API server. It logs in,
// asks the server for a presigned object storage URL and streams the
// file content directly to or from the store.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/onoff/todo-api/internal/netx"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type uploadURLResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

type downloadURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

func main() {

	server := flag.String("server", "http://localhost:8080", "API server base URL")
	email := flag.String("email", "", "user email (login)")
	taskID := flag.Int64("task", 0, "task id")
	file := flag.String("file", "", "file to upload, or destination for -download")
	download := flag.Bool("download", false, "download the attachment instead of uploading")
	flag.Parse()

	if *email == "" || *taskID == 0 || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	ctx := context.Background()

	token, err := login(ctx, *server, *email, string(password))
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	if *download {
		err = downloadAttachment(ctx, *server, token, *taskID, *file)
	} else {
		err = uploadAttachment(ctx, *server, token, *taskID, *file)
	}
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	fmt.Println("Success!")
}

func login(ctx context.Context, server, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	var resp loginResponse
	if err := postJSON(ctx, server+"/api/auth/login", "", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login succeeded but no token returned")
	}
	return resp.Token, nil
}

func uploadAttachment(ctx context.Context, server, token string, taskID int64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var resp uploadURLResponse
	url := fmt.Sprintf("%s/api/todotasks/%d/attachment/upload-url", server, taskID)
	if err := postJSON(ctx, url, token, nil, &resp); err != nil {
		return err
	}

	if err := netx.UploadToPresignedURL(ctx, resp.UploadURL, f, contentTypeFor(path)); err != nil {
		return err
	}

	fmt.Println("stored as", resp.Key)
	return nil
}

func downloadAttachment(ctx context.Context, server, token string, taskID int64, path string) error {
	var resp downloadURLResponse
	url := fmt.Sprintf("%s/api/todotasks/%d/attachment/download-url", server, taskID)
	if err := getJSON(ctx, url, token, &resp); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return netx.DownloadFromPresignedURL(ctx, resp.DownloadURL, f)
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func postJSON(ctx context.Context, url, token string, body io.Reader, out any) error {
	return doJSON(ctx, http.MethodPost, url, token, body, out)
}

func getJSON(ctx context.Context, url, token string, out any) error {
	return doJSON(ctx, http.MethodGet, url, token, nil, out)
}

func doJSON(ctx context.Context, method, url, token string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s; body: %s", method, url, resp.Status, string(b))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
