package directory

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/wolkenio/core/client"
)

func fakeDirectory(t *testing.T, devices []Device, pageSize int) *mux.Router {
	t.Helper()
	router := mux.NewRouter()

	router.HandleFunc("/v3/devices/{device}", func(w http.ResponseWriter, r *http.Request) {
		deviceID := mux.Vars(r)["device"]
		for _, device := range devices {
			if device.DeviceID == deviceID {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(device)
				return
			}
		}
		http.Error(w, "no such device", http.StatusNotFound)
	}).Methods(http.MethodGet)

	router.HandleFunc("/v3/devices", func(w http.ResponseWriter, r *http.Request) {
		if l := r.URL.Query().Get("limit"); l != "" {
			limit, _ := strconv.Atoi(l)
			if limit > len(devices) {
				limit = len(devices)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(devices[:limit])
			return
		}
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		pageCount := (len(devices) + pageSize - 1) / pageSize
		from := (page - 1) * pageSize
		to := from + pageSize
		if from > len(devices) {
			from = len(devices)
		}
		if to > len(devices) {
			to = len(devices)
		}
		w.Header().Set("Pagination-Page-Count", strconv.Itoa(pageCount))
		w.Header().Set("Pagination-Total-Count", strconv.Itoa(len(devices)))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(devices[from:to])
	}).Methods(http.MethodGet)

	return router
}

func TestDirectory(t *testing.T) {
	devices := []Device{
		{DeviceID: "device-1", EndpointType: "thermostat", State: "registered"},
		{DeviceID: "device-2", EndpointType: "thermostat", State: "registered"},
		{DeviceID: "device-3", EndpointType: "gateway", State: "deregistered"},
	}
	api := New(client.NewWithRouter(fakeDirectory(t, devices, 2)))

	device, err := api.Get("device-2")
	if err != nil {
		t.Fatal(err)
	}
	if device.EndpointType != "thermostat" {
		t.Fatal("got:", device)
	}

	if _, err = api.Get("no-such-device"); err == nil {
		t.Fatal("missing device did not fail")
	}

	listed, err := api.List(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 3 {
		t.Fatal("listed:", listed)
	}

	truncated, err := api.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(truncated) != 2 {
		t.Fatal("limit not honored:", truncated)
	}
}

func TestDirectoryPaging(t *testing.T) {
	devices := []Device{
		{DeviceID: "device-1"},
		{DeviceID: "device-2"},
		{DeviceID: "device-3"},
	}
	api := New(client.NewWithRouter(fakeDirectory(t, devices, 2)))

	var all []Device
	pages := 0
	for page := api.FirstPage(); page.HasData(); page = page.Next() {
		var result []Device
		if _, err := page.Get(&result); err != nil {
			t.Fatal(err)
		}
		all = append(all, result...)
		pages++
		if page.TotalCount() != 3 {
			t.Fatal("total count:", page.TotalCount())
		}
	}
	if pages != 2 {
		t.Fatal("pages:", pages)
	}
	if len(all) != 3 || all[2].DeviceID != "device-3" {
		t.Fatal("devices:", all)
	}
}
