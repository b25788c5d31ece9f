package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/utils"
)

// BundleClient fetches the mandatory full-data bundle.
type BundleClient struct {
	baseClient
}

func NewBundleClient(cfg *config.Config, httpClient *http.Client, logger *utils.Logger) *BundleClient {
	return &BundleClient{baseClient: newBaseClient(SourceBundle, cfg, httpClient, logger)}
}

func (c *BundleClient) Fetch(ctx context.Context, reportID string) (*models.FullData, error) {
	if strings.TrimSpace(reportID) == "" {
		return nil, config.MissingReportIDError()
	}

	body, err := c.getText(ctx, EndpointBundle, map[string]string{"rapport": reportID})
	if err != nil {
		return nil, err
	}

	data, repairs, err := ParseBundle(body)
	if err != nil {
		return nil, err
	}
	for _, r := range repairs {
		c.logger.Warn("[bundle] Applied repair for %s: %s", reportID, r)
	}

	c.logger.Debug("[bundle] %s: %d checkout photos, %d steps, %d exit questions",
		reportID, len(data.PhotoPieceCheckout), len(data.EtapeResponse), len(data.ExitQuestion))
	return data, nil
}

// ParseBundle runs the repair passes, decodes the bundle and normalizes its
// URLs. It returns the names of the repairs that changed the text.
func ParseBundle(raw []byte) (*models.FullData, []string, error) {
	var repairs []string
	text := string(raw)

	apply := func(name string, fn func(string) string) {
		if fixed := fn(text); fixed != text {
			repairs = append(repairs, name)
			text = fixed
		}
	}
	apply("collapse newlines", CollapseNewlines)
	apply("quote userPhone key", QuoteUserPhoneKey)
	firstName := FirstNonEmptyValue(text, "logementName")
	apply("empty dataia object", FixEmptyDataIA)

	var data models.FullData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, repairs, fmt.Errorf("%w: %v", ErrBundleRepair, err)
	}

	if models.IsBlank(data.LogementName) && firstName != "" {
		data.LogementName = firstName
		repairs = append(repairs, "restore first logementName")
	}

	normalizeBundleURLs(&data)
	return &data, repairs, nil
}

func normalizeBundleURLs(data *models.FullData) {
	for i := range data.EtapeResponse {
		data.EtapeResponse[i].ReferencePhoto = NormalizeURL(data.EtapeResponse[i].ReferencePhoto)
		data.EtapeResponse[i].CheckPhoto = NormalizeURL(data.EtapeResponse[i].CheckPhoto)
	}
	for i := range data.PhotoPieceCheckout {
		data.PhotoPieceCheckout[i].ImageCheckout = NormalizeURL(data.PhotoPieceCheckout[i].ImageCheckout)
	}
	for i := range data.PhotoPieceInitiales {
		urls := data.PhotoPieceInitiales[i].PhotoURL
		for j := range urls {
			urls[j] = NormalizeURL(urls[j])
		}
	}
	for i := range data.ExitQuestion {
		data.ExitQuestion[i].ImageResponseURL = NormalizeURL(data.ExitQuestion[i].ImageResponseURL)
	}
}
