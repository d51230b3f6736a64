// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package directory lists and inspects the devices known to the cloud

The device directory is a paged collection. Small fleets fit into a single
List call; for larger fleets FirstPage walks the collection page by page.
*/
package directory

import (
	"net/url"
	"strconv"
	"time"

	"github.com/relabs-tech/wolkenio/core/client"
)

// Device is one entry of the device directory.
type Device struct {
	DeviceID     string    `json:"device_id"`
	EndpointType string    `json:"endpoint_type,omitempty"`
	State        string    `json:"state,omitempty"`
	QueueMode    bool      `json:"queue_mode,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// API accesses the device directory.
type API struct {
	client client.Client
}

// New returns a directory API on the given client.
func New(c client.Client) API {
	return API{client: c}
}

// Get returns a single device by id.
func (a API) Get(deviceID string) (Device, error) {
	var device Device
	_, err := a.client.RawGet("/v3/devices/"+url.PathEscape(deviceID), &device)
	return device, err
}

// List returns the first page of the directory with the given limit. If you
// potentially need multiple pages, use FirstPage() instead.
func (a API) List(limit int) ([]Device, error) {
	var devices []Device
	_, err := a.client.RawGet("/v3/devices?limit="+strconv.Itoa(limit), &devices)
	return devices, err
}

// Page is a requester for one page of the device directory.
type Page struct {
	a          API
	page       int
	pageCount  int
	totalCount int
}

// FirstPage returns a requester for the first page of the directory.
func (a API) FirstPage() Page {
	return Page{a: a, page: 1}
}

// HasData returns true if the page has data (by definition true for the
// first page)
func (p Page) HasData() bool {
	return p.page == 1 || p.page <= p.pageCount
}

// TotalCount returns the total number of devices (only available after you
// have called Get on the page)
func (p Page) TotalCount() int {
	return p.totalCount
}

// Get gets one page of the directory
func (p *Page) Get(result *[]Device) (int, error) {
	path := "/v3/devices?page=" + strconv.Itoa(p.page)
	status, header, err := p.a.client.RawGetWithHeader(path, map[string]string{}, result)
	if err != nil {
		return status, err
	}
	pageCount, err := strconv.Atoi(header.Get("Pagination-Page-Count"))
	if err == nil {
		p.pageCount = pageCount
	}
	totalCount, err := strconv.Atoi(header.Get("Pagination-Total-Count"))
	if err == nil {
		p.totalCount = totalCount
	}
	return status, nil
}

// Next returns the next page
func (p Page) Next() Page {
	return Page{
		a:         p.a,
		page:      p.page + 1,
		pageCount: p.pageCount,
	}
}
