package upstream

import (
	"context"
	"fmt"
)

// FetchCpuIDCatalog fetches /api/v2/cpuids/ (§4.7 step 1, §6.2). It is
// not paginated.
func (c *Client) FetchCpuIDCatalog(ctx context.Context) (CpuIDCatalog, error) {
	var catalog CpuIDCatalog
	url := c.BaseURL + "/api/v2/cpuids/"
	if err := c.fetchJSON(ctx, url, &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// CertificatePageHandler is called once per page of public-certificates;
// returning an error stops pagination.
type CertificatePageHandler func(ctx context.Context, items []CertificateDTO) error

// FetchCertificates walks /api/v2/public-certificates/?pagination=limitoffset&limit=0
// page by page, following the server-authoritative next URL (§4.7 step
// 2), invoking handle once per page.
func (c *Client) FetchCertificates(ctx context.Context, handle CertificatePageHandler) error {
	url := c.BaseURL + "/api/v2/public-certificates/?pagination=limitoffset&limit=0"
	for url != "" {
		var page certificatePage
		if err := c.fetchJSON(ctx, url, &page); err != nil {
			return err
		}
		if err := handle(ctx, page.Results); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			// Importer cancellation aborts at the next page boundary
			// (§5); the caller committed or rolled back each item
			// already, so stopping here is clean.
			return err
		}
		url = page.Next
	}
	return nil
}

// DeviceInstancePageHandler is called once per page of
// public-device-instances.
type DeviceInstancePageHandler func(ctx context.Context, items []DeviceInstanceDTO) error

// FetchDeviceInstances walks
// /api/v2/public-device-instances/?pagination=limitoffset&limit=1000
// page by page (§4.7 step 3).
func (c *Client) FetchDeviceInstances(ctx context.Context, handle DeviceInstancePageHandler) error {
	url := fmt.Sprintf("%s/api/v2/public-device-instances/?pagination=limitoffset&limit=1000", c.BaseURL)
	for url != "" {
		var page deviceInstancePage
		if err := c.fetchJSON(ctx, url, &page); err != nil {
			return err
		}
		if err := handle(ctx, page.Results); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		url = page.Next
	}
	return nil
}
