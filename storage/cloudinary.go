package storage

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Cloudinary configuration via environment variables:
// CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET, CLOUDINARY_FOLDER (optional)

func InitializeCloudinary() {
	if os.Getenv("CLOUDINARY_CLOUD_NAME") == "" ||
		os.Getenv("CLOUDINARY_API_KEY") == "" ||
		os.Getenv("CLOUDINARY_API_SECRET") == "" {
		log.Println("⚠️  Cloudinary env vars not set, product image uploads disabled")
		return
	}
	log.Println("🔧 Cloudinary initialized for cloud:", os.Getenv("CLOUDINARY_CLOUD_NAME"))
}

// UploadBase64Image performs a signed upload of a base64 image (raw or data URL)
// and returns a map with the "url" key. An empty url means the upload failed.
func UploadBase64Image(base64ImageSrc string, publicID string) map[string]string {
	if base64ImageSrc == "" {
		fmt.Printf("ERROR: Empty base64 image\n")
		return map[string]string{"url": ""}
	}

	i := strings.Index(base64ImageSrc, ",")
	payload := base64ImageSrc
	if i != -1 {
		payload = base64ImageSrc[i+1:]
	}

	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")
	folder := os.Getenv("CLOUDINARY_FOLDER")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		fmt.Printf("ERROR: Missing Cloudinary env vars\n")
		return map[string]string{"url": ""}
	}

	endpoint := "https://api.cloudinary.com/v1_1/" + cloudName + "/image/upload"

	form := url.Values{}
	form.Add("file", "data:image/jpeg;base64,"+payload)
	form.Add("api_key", apiKey)

	finalPublicID := publicID
	if folder != "" {
		finalPublicID = folder + "/" + publicID
	}
	if finalPublicID != "" {
		form.Add("public_id", finalPublicID)
	}

	// Signed upload: SHA1 over public_id + timestamp + secret
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	form.Add("timestamp", timestamp)

	signatureString := fmt.Sprintf("public_id=%s&timestamp=%s%s", finalPublicID, timestamp, apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))
	form.Add("signature", signature)

	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Printf("ERROR: Failed to create request: %v\n", err)
		return map[string]string{"url": ""}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("ERROR: HTTP request failed: %v\n", err)
		return map[string]string{"url": ""}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Printf("ERROR: Failed to read response: %v\n", err)
		return map[string]string{"url": ""}
	}

	if res.StatusCode != 200 {
		fmt.Printf("ERROR: Cloudinary upload failed with status %d: %s\n", res.StatusCode, string(body))
		return map[string]string{"url": ""}
	}

	var cloudRes struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &cloudRes); err != nil {
		fmt.Printf("ERROR: Failed to parse JSON: %v\n", err)
		return map[string]string{"url": ""}
	}

	if cloudRes.Error.Message != "" {
		fmt.Printf("ERROR: Cloudinary error: %s\n", cloudRes.Error.Message)
		return map[string]string{"url": ""}
	}

	urlOut := cloudRes.SecureURL
	if urlOut == "" {
		urlOut = cloudRes.URL
	}
	if urlOut == "" {
		fmt.Printf("ERROR: No URL returned from Cloudinary\n")
		return map[string]string{"url": ""}
	}

	return map[string]string{"url": urlOut}
}

// publicIDFromURL recovers the full public ID from a Cloudinary delivery URL:
// everything after the /upload/ segment (and an optional v<version> segment),
// with the file extension stripped. Nested IDs like products/7/<uuid> survive.
func publicIDFromURL(imageURL string) string {
	if !strings.Contains(imageURL, "res.cloudinary.com") {
		return ""
	}

	i := strings.Index(imageURL, "/upload/")
	if i == -1 {
		return ""
	}
	path := imageURL[i+len("/upload/"):]

	if first, rest, found := strings.Cut(path, "/"); found && isVersionSegment(first) {
		path = rest
	}
	if path == "" {
		return ""
	}

	if dot := strings.LastIndex(path, "."); dot > strings.LastIndex(path, "/") {
		path = path[:dot]
	}
	return path
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DeleteImage removes a previously uploaded image by its Cloudinary URL.
// Used when a seller deletes a product listing.
func DeleteImage(imageURL string) bool {
	// The URL-derived ID already carries the folder prefix added on upload
	publicID := publicIDFromURL(imageURL)
	if publicID == "" {
		return false
	}

	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		fmt.Printf("ERROR: Missing Cloudinary env vars\n")
		return false
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signatureString := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))

	form := url.Values{}
	form.Add("public_id", publicID)
	form.Add("api_key", apiKey)
	form.Add("timestamp", timestamp)
	form.Add("signature", signature)

	endpoint := "https://api.cloudinary.com/v1_1/" + cloudName + "/image/destroy"
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("ERROR: Deletion request failed: %v\n", err)
		return false
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false
	}
	if res.StatusCode != 200 {
		fmt.Printf("ERROR: Deletion failed with status %d: %s\n", res.StatusCode, string(body))
		return false
	}

	var deleteRes struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(body, &deleteRes); err != nil {
		return false
	}

	if deleteRes.Result != "ok" {
		fmt.Printf("ERROR: Cloudinary destroy returned %q for %s\n", deleteRes.Result, publicID)
		return false
	}
	return true
}
