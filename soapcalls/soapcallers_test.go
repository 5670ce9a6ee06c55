package soapcalls

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func newTestPayload(t *testing.T, h http.HandlerFunc) *TVPayload {
	t.Helper()

	testServer := httptest.NewServer(h)
	t.Cleanup(testServer.Close)

	host, port, err := net.SplitHostPort(strings.TrimPrefix(testServer.URL, "http://"))
	if err != nil {
		t.Fatalf("split test server address: %s", err)
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("convert test server port: %s", err)
	}

	tv, err := NewTVPayload(&Options{Host: host, Port: p})
	if err != nil {
		t.Fatalf("NewTVPayload: %s", err)
	}

	return tv
}

func TestNewTVPayload(t *testing.T) {
	tv, err := NewTVPayload(&Options{Host: "192.168.0.122"})
	if err != nil {
		t.Fatalf("NewTVPayload: %s", err)
	}

	if tv.ControlURL != "http://192.168.0.122:55000/nrc/control_0" {
		t.Fatalf("ControlURL = %q", tv.ControlURL)
	}

	if tv.RenderingControlURL != "http://192.168.0.122:55000/dmr/control_0" {
		t.Fatalf("RenderingControlURL = %q", tv.RenderingControlURL)
	}

	if _, err := NewTVPayload(&Options{}); err == nil {
		t.Fatal("NewTVPayload with empty host: want error")
	}
}

func TestSendKey(t *testing.T) {
	var gotAction, gotPath, gotBody string

	tv := newTestPayload(t, func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.Header.Get("SOAPAction")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	})

	if err := tv.TogglePower(context.Background()); err != nil {
		t.Fatalf("TogglePower: %s", err)
	}

	if gotAction != `"urn:panasonic-com:service:p00NetworkControl:1#X_SendKey"` {
		t.Fatalf("SOAPAction = %s", gotAction)
	}

	if gotPath != "/nrc/control_0" {
		t.Fatalf("path = %s", gotPath)
	}

	if !strings.Contains(gotBody, "<X_KeyEvent>NRC_POWER-ONOFF</X_KeyEvent>") {
		t.Fatalf("body does not carry the power key: %s", gotBody)
	}
}

func TestSendKeyBadStatus(t *testing.T) {
	tv := newTestPayload(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	if err := tv.SendKey(context.Background(), KeyHome); err == nil {
		t.Fatal("SendKey: want error on 400 reply")
	}
}

func TestGetMuteSoapCall(t *testing.T) {
	tt := []struct {
		name  string
		reply string
		want  bool
	}{
		{
			"muted",
			`<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:GetMuteResponse xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1"><CurrentMute>1</CurrentMute></u:GetMuteResponse></s:Body></s:Envelope>`,
			true,
		},
		{
			"not muted",
			`<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:GetMuteResponse xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1"><CurrentMute>0</CurrentMute></u:GetMuteResponse></s:Body></s:Envelope>`,
			false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			tv := newTestPayload(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/dmr/control_0" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.Header.Get("SOAPAction") != `"urn:schemas-upnp-org:service:RenderingControl:1#GetMute"` {
					t.Errorf("SOAPAction = %s", r.Header.Get("SOAPAction"))
				}
				_, _ = w.Write([]byte(tc.reply))
			})

			got, err := tv.GetMuteSoapCall(context.Background())
			if err != nil {
				t.Fatalf("GetMuteSoapCall: %s", err)
			}

			if got != tc.want {
				t.Fatalf("GetMuteSoapCall() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetVolumeSoapCall(t *testing.T) {
	tv := newTestPayload(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><u:GetVolumeResponse xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1"><CurrentVolume>17</CurrentVolume></u:GetVolumeResponse></s:Body></s:Envelope>`))
	})

	got, err := tv.GetVolumeSoapCall(context.Background())
	if err != nil {
		t.Fatalf("GetVolumeSoapCall: %s", err)
	}

	if got != 17 {
		t.Fatalf("GetVolumeSoapCall() = %d, want 17", got)
	}
}

func TestSetVolumeSoapCallClamps(t *testing.T) {
	var gotBody string

	tv := newTestPayload(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	})

	if err := tv.SetVolumeSoapCall(context.Background(), 250); err != nil {
		t.Fatalf("SetVolumeSoapCall: %s", err)
	}

	if !strings.Contains(gotBody, "<DesiredVolume>100</DesiredVolume>") {
		t.Fatalf("volume was not clamped: %s", gotBody)
	}
}

func TestClampVolume(t *testing.T) {
	tt := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{101, 100},
	}

	for _, tc := range tt {
		if got := ClampVolume(tc.in); got != tc.want {
			t.Errorf("ClampVolume(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
