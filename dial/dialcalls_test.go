package dial

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDescriptor = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
<specVersion><major>1</major><minor>0</minor></specVersion>
<device>
<deviceType>urn:dial-multiscreen-org:device:dial:1</deviceType>
<friendlyName>Living Room TV</friendlyName>
<manufacturer>Panasonic</manufacturer>
<modelName>VIERA</modelName>
<UDN>uuid:4D454930-0100-1000-8001-A81374A8A0F4</UDN>
</device>
</root>`

const testAppInfo = `<?xml version="1.0" encoding="UTF-8"?>
<service xmlns="urn:dial-multiscreen-org:schemas:dial" dialVer="1.7">
<name>YouTube</name>
<options allowStop="true"/>
<state>running</state>
<link rel="run" href="run"/>
</service>`

func newTestDevice(t *testing.T, mux *http.ServeMux, withAppURL bool) (*Device, error) {
	t.Helper()

	testServer := httptest.NewServer(mux)
	t.Cleanup(testServer.Close)

	mux.HandleFunc("/dd.xml", func(w http.ResponseWriter, r *http.Request) {
		if withAppURL {
			w.Header().Set("Application-URL", "http://"+r.Host+"/apps/")
		}
		_, _ = w.Write([]byte(testDescriptor))
	})

	return NewClient(0, nil).GetDevice(context.Background(), testServer.URL+"/dd.xml")
}

func TestGetDevice(t *testing.T) {
	d, err := newTestDevice(t, http.NewServeMux(), true)
	require.NoError(t, err)

	require.Equal(t, "Living Room TV", d.FriendlyName)
	require.Equal(t, "Panasonic", d.Manufacturer)
	require.Equal(t, "VIERA", d.ModelName)
	require.Equal(t, "uuid:4D454930-0100-1000-8001-A81374A8A0F4", d.UDN)
	require.Contains(t, d.ApplicationURL, "/apps/")
}

func TestGetDeviceMissingApplicationURL(t *testing.T) {
	_, err := newTestDevice(t, http.NewServeMux(), false)
	if !errors.Is(err, ErrNoApplicationURL) {
		t.Fatalf("GetDevice() err = %v, want %v", err, ErrNoApplicationURL)
	}
}

func TestGetDeviceBadURL(t *testing.T) {
	_, err := NewClient(0, nil).GetDevice(context.Background(), "not a url")
	require.Error(t, err)
}

func TestStopApp(t *testing.T) {
	var gotMethod, gotPath string

	mux := http.NewServeMux()
	mux.HandleFunc("/apps/YouTube/run", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	d, err := newTestDevice(t, mux, true)
	require.NoError(t, err)

	code, err := d.StopApp(context.Background(), "YouTube", "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/apps/YouTube/run", gotPath)
}

func TestStopAppNotRunning(t *testing.T) {
	d, err := newTestDevice(t, http.NewServeMux(), true)
	require.NoError(t, err)

	code, err := d.StopApp(context.Background(), "YouTube", DefaultInstance)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, code)
}

func TestStopAppServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/apps/YouTube/run", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	d, err := newTestDevice(t, mux, true)
	require.NoError(t, err)

	code, err := d.StopApp(context.Background(), "YouTube", DefaultInstance)
	require.Error(t, err)
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestLaunchApp(t *testing.T) {
	var gotBody, gotType string

	mux := http.NewServeMux()
	mux.HandleFunc("/apps/YouTube", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.Header().Set("Location", "http://"+r.Host+"/apps/YouTube/run")
		w.WriteHeader(http.StatusCreated)
	})

	d, err := newTestDevice(t, mux, true)
	require.NoError(t, err)

	loc, err := d.LaunchApp(context.Background(), "YouTube", "v=dQw4w9WgXcQ", "text/plain")
	require.NoError(t, err)
	require.Equal(t, "v=dQw4w9WgXcQ", gotBody)
	require.Equal(t, "text/plain; charset=utf-8", gotType)
	require.Contains(t, loc, "/apps/YouTube/run")
}

func TestLaunchAppRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/apps/YouTube", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	d, err := newTestDevice(t, mux, true)
	require.NoError(t, err)

	_, err = d.LaunchApp(context.Background(), "YouTube", "v=x", "text/plain")
	require.Error(t, err)
}

func TestAppInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/apps/YouTube", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testAppInfo))
	})

	d, err := newTestDevice(t, mux, true)
	require.NoError(t, err)

	info, err := d.AppInfo(context.Background(), "YouTube")
	require.NoError(t, err)
	require.Equal(t, "YouTube", info.Name)
	require.True(t, info.Running())
	require.True(t, info.AllowStop)
	require.Equal(t, "run", info.RunHref)
	require.Equal(t, "1.7", info.DialVer)
}
