package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const fast2smsEndpoint = "https://www.fast2sms.com/dev/bulkV2"

// SendOTPSMS delivers the password-reset OTP through the Fast2SMS bulk API.
// The stored mobile number must be a bare 10-digit Indian number.
func SendOTPSMS(phoneNumber string, otp string) (bool, error) {
	apiKey := os.Getenv("FAST2SMS_API_KEY")
	if apiKey == "" {
		log.Println("ERROR: FAST2SMS_API_KEY not found in environment")
		return false, nil
	}

	cleaned := NormalizePhoneNumber(phoneNumber)
	if !ValidatePhoneNumber(cleaned) {
		return false, fmt.Errorf("invalid phone number format: %s", phoneNumber)
	}

	form := url.Values{}
	form.Add("authorization", apiKey)
	form.Add("message", fmt.Sprintf("Your OTP for password reset is: %s. Valid for 10 minutes.", otp))
	form.Add("language", "english")
	form.Add("route", "q")
	form.Add("numbers", cleaned)

	req, err := http.NewRequest("POST", fast2smsEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("cache-control", "no-cache")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false, err
	}

	if res.StatusCode != http.StatusOK {
		log.Printf("Fast2SMS HTTP error %d: %s", res.StatusCode, string(body))
		return false, fmt.Errorf("fast2sms returned status %d", res.StatusCode)
	}

	var smsRes struct {
		Return  bool   `json:"return"`
		Message any    `json:"message"`
		Request string `json:"request_id"`
	}
	if err := json.Unmarshal(body, &smsRes); err != nil {
		return false, err
	}

	if !smsRes.Return {
		log.Printf("Fast2SMS rejected message: %v", smsRes.Message)
		return false, nil
	}

	return true, nil
}
