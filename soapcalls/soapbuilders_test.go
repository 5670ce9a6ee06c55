package soapcalls

import (
	"testing"
)

func TestSendKeySoapBuild(t *testing.T) {
	tt := []struct {
		name  string
		input string
		want  string
	}{
		{
			`sendKeySoapBuild Test #1`,
			KeyPower,
			`<?xml version='1.0' encoding='utf-8'?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:X_SendKey xmlns:u="urn:panasonic-com:service:p00NetworkControl:1"><X_KeyEvent>NRC_POWER-ONOFF</X_KeyEvent></u:X_SendKey></s:Body></s:Envelope>`,
		},
		{
			`sendKeySoapBuild Test #2`,
			KeyMute,
			`<?xml version='1.0' encoding='utf-8'?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:X_SendKey xmlns:u="urn:panasonic-com:service:p00NetworkControl:1"><X_KeyEvent>NRC_MUTE-ONOFF</X_KeyEvent></u:X_SendKey></s:Body></s:Envelope>`,
		},
	}

	for _, tc := range tt {
		out, err := sendKeySoapBuild(tc.input)
		if err != nil {
			t.Errorf("%s: Failed to call sendKeySoapBuild due to %s", tc.name, err.Error())
			return
		}
		if string(out) != tc.want {
			t.Errorf("%s: got: %s, want: %s.", tc.name, out, tc.want)
			return
		}
	}
}

func TestGetMuteSoapBuild(t *testing.T) {
	want := `<?xml version='1.0' encoding='utf-8'?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:GetMute xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1"><InstanceID>0</InstanceID><Channel>Master</Channel></u:GetMute></s:Body></s:Envelope>`

	out, err := getMuteSoapBuild()
	if err != nil {
		t.Fatalf("getMuteSoapBuild: Failed due to %s", err.Error())
	}

	if string(out) != want {
		t.Fatalf("getMuteSoapBuild: got: %s, want: %s.", out, want)
	}
}

func TestSetMuteSoapBuild(t *testing.T) {
	tt := []struct {
		name  string
		input string
		want  string
	}{
		{
			`setMuteSoapBuild Test #1`,
			"1",
			`<?xml version='1.0' encoding='utf-8'?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:SetMute xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1"><InstanceID>0</InstanceID><Channel>Master</Channel><DesiredMute>1</DesiredMute></u:SetMute></s:Body></s:Envelope>`,
		},
		{
			`setMuteSoapBuild Test #2`,
			"0",
			`<?xml version='1.0' encoding='utf-8'?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:SetMute xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1"><InstanceID>0</InstanceID><Channel>Master</Channel><DesiredMute>0</DesiredMute></u:SetMute></s:Body></s:Envelope>`,
		},
	}

	for _, tc := range tt {
		out, err := setMuteSoapBuild(tc.input)
		if err != nil {
			t.Errorf("%s: Failed to call setMuteSoapBuild due to %s", tc.name, err.Error())
			return
		}
		if string(out) != tc.want {
			t.Errorf("%s: got: %s, want: %s.", tc.name, out, tc.want)
			return
		}
	}
}

func TestSetVolumeSoapBuild(t *testing.T) {
	want := `<?xml version='1.0' encoding='utf-8'?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:SetVolume xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1"><InstanceID>0</InstanceID><Channel>Master</Channel><DesiredVolume>25</DesiredVolume></u:SetVolume></s:Body></s:Envelope>`

	out, err := setVolumeSoapBuild(25)
	if err != nil {
		t.Fatalf("setVolumeSoapBuild: Failed due to %s", err.Error())
	}

	if string(out) != want {
		t.Fatalf("setVolumeSoapBuild: got: %s, want: %s.", out, want)
	}
}
