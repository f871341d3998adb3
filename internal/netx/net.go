// Package netx contains small HTTP helpers for moving attachment
// content to and from presigned object storage URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// UploadToPresignedURL streams body to the presigned PUT url.
// Any status other than 200 is reported as an error.
func UploadToPresignedURL(ctx context.Context, url string, body io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
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

// DownloadFromPresignedURL fetches the object behind the presigned GET url
// and writes it to dst.
func DownloadFromPresignedURL(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	_, err = io.Copy(dst, resp.Body)
	return err
}
