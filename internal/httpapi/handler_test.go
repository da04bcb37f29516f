package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/store"
)

func seedFixture() *store.Fake {
	f := store.NewFake()
	v := f.SeedVendor("V")
	board := f.SeedDevice(model.Device{VendorID: v.ID, Name: "BRD", Version: "v1", Category: model.CategoryBoard})
	bios := f.SeedBios(model.Bios{VendorID: v.ID, Version: "1.0", Revision: "A"})
	release := f.SeedRelease(model.Release{Codename: "noble", ReleaseStr: "24.04"})
	machine := f.SeedMachine(model.Machine{CanonicalID: "M/202401-1"})
	cert := f.SeedCertificate(model.Certificate{MachineID: machine.ID, ReleaseID: release.ID, Name: "C"})
	cpu := f.SeedDevice(model.Device{VendorID: v.ID, Name: "i5-7300U", Category: model.CategoryProcessor, Codename: "Raptor Lake", Version: "i5-7300U-hw"})
	f.SeedReport(model.Report{CertificateID: cert.ID, Architecture: "amd64", BiosID: &bios.ID}, board.ID, cpu.ID)
	f.SeedCpuID("0xb0671", "Raptor Lake")
	return f
}

func TestHandleRoot(t *testing.T) {
	s := NewServer(store.NewFake(), nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, rootMessage, rec.Body.String())
}

func TestHandleOpenAPI(t *testing.T) {
	s := NewServer(store.NewFake(), nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.yaml", nil)
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "openapi: 3.0.3")
}

func TestHandleCertificationStatusMalformedBody(t *testing.T) {
	s := NewServer(store.NewFake(), nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/certification/status", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleCertificationStatusCertified(t *testing.T) {
	s := NewServer(seedFixture(), nil)
	body := certificationStatusRequest{
		Vendor:       "V",
		Model:        "whatever",
		Architecture: "amd64",
		Board:        boardDTO{Manufacturer: "V", ProductName: "BRD", Version: "v1"},
		Bios:         &biosDTO{Vendor: "V", Version: "1.0"},
		OS:           osDTO{Distributor: "Ubuntu", Version: "24.04", Codename: "noble"},
		Processor:    processorDTO{Identifier: []int{0x71, 0x06, 0x0B}, Manufacturer: "Intel Corp.", Version: "i5-7300U-hw"},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/certification/status", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Certified", resp["status"])

	// On a Certified response, chassis and the device-list fields are
	// present as a literal JSON null, never omitted.
	for _, key := range []string{"chassis", "gpu", "audio", "video", "network", "wireless", "pci_peripherals", "usb_peripherals"} {
		val, ok := resp[key]
		require.Truef(t, ok, "expected key %q to be present", key)
		require.Nilf(t, val, "expected key %q to be null", key)
	}
}

func TestHandleCertificationStatusNotSeen(t *testing.T) {
	s := NewServer(seedFixture(), nil)
	body := certificationStatusRequest{Vendor: "Unknown", Board: boardDTO{}, OS: osDTO{}, Processor: processorDTO{}}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/certification/status", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.NewRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Not Seen", resp["status"])
}
