package soapcalls

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

const (
	soapEnvelopeSchema   = "http://schemas.xmlsoap.org/soap/envelope/"
	soapEncodingSchema   = "http://schemas.xmlsoap.org/soap/encoding/"
	networkControlSchema = "urn:panasonic-com:service:p00NetworkControl:1"
	renderingCtlSchema   = "urn:schemas-upnp-org:service:RenderingControl:1"
)

// SendKeyEnvelope .
type SendKeyEnvelope struct {
	XMLName     xml.Name    `xml:"s:Envelope"`
	Schema      string      `xml:"xmlns:s,attr"`
	Encoding    string      `xml:"s:encodingStyle,attr"`
	SendKeyBody SendKeyBody `xml:"s:Body"`
}

// SendKeyBody .
type SendKeyBody struct {
	XMLName       xml.Name      `xml:"s:Body"`
	SendKeyAction SendKeyAction `xml:"u:X_SendKey"`
}

// SendKeyAction - a single remote-control key press.
type SendKeyAction struct {
	XMLName        xml.Name `xml:"u:X_SendKey"`
	NetworkControl string   `xml:"xmlns:u,attr"`
	KeyEvent       string   `xml:"X_KeyEvent"`
}

// GetMuteEnvelope .
type GetMuteEnvelope struct {
	XMLName     xml.Name    `xml:"s:Envelope"`
	Schema      string      `xml:"xmlns:s,attr"`
	Encoding    string      `xml:"s:encodingStyle,attr"`
	GetMuteBody GetMuteBody `xml:"s:Body"`
}

// GetMuteBody .
type GetMuteBody struct {
	XMLName       xml.Name      `xml:"s:Body"`
	GetMuteAction GetMuteAction `xml:"u:GetMute"`
}

// GetMuteAction .
type GetMuteAction struct {
	XMLName          xml.Name `xml:"u:GetMute"`
	RenderingControl string   `xml:"xmlns:u,attr"`
	InstanceID       string
	Channel          string
}

// SetMuteEnvelope .
type SetMuteEnvelope struct {
	XMLName     xml.Name    `xml:"s:Envelope"`
	Schema      string      `xml:"xmlns:s,attr"`
	Encoding    string      `xml:"s:encodingStyle,attr"`
	SetMuteBody SetMuteBody `xml:"s:Body"`
}

// SetMuteBody .
type SetMuteBody struct {
	XMLName       xml.Name      `xml:"s:Body"`
	SetMuteAction SetMuteAction `xml:"u:SetMute"`
}

// SetMuteAction .
type SetMuteAction struct {
	XMLName          xml.Name `xml:"u:SetMute"`
	RenderingControl string   `xml:"xmlns:u,attr"`
	InstanceID       string
	Channel          string
	DesiredMute      string
}

// GetVolumeEnvelope .
type GetVolumeEnvelope struct {
	XMLName       xml.Name      `xml:"s:Envelope"`
	Schema        string        `xml:"xmlns:s,attr"`
	Encoding      string        `xml:"s:encodingStyle,attr"`
	GetVolumeBody GetVolumeBody `xml:"s:Body"`
}

// GetVolumeBody .
type GetVolumeBody struct {
	XMLName         xml.Name        `xml:"s:Body"`
	GetVolumeAction GetVolumeAction `xml:"u:GetVolume"`
}

// GetVolumeAction .
type GetVolumeAction struct {
	XMLName          xml.Name `xml:"u:GetVolume"`
	RenderingControl string   `xml:"xmlns:u,attr"`
	InstanceID       string
	Channel          string
}

// SetVolumeEnvelope .
type SetVolumeEnvelope struct {
	XMLName       xml.Name      `xml:"s:Envelope"`
	Schema        string        `xml:"xmlns:s,attr"`
	Encoding      string        `xml:"s:encodingStyle,attr"`
	SetVolumeBody SetVolumeBody `xml:"s:Body"`
}

// SetVolumeBody .
type SetVolumeBody struct {
	XMLName         xml.Name        `xml:"s:Body"`
	SetVolumeAction SetVolumeAction `xml:"u:SetVolume"`
}

// SetVolumeAction .
type SetVolumeAction struct {
	XMLName          xml.Name `xml:"u:SetVolume"`
	RenderingControl string   `xml:"xmlns:u,attr"`
	InstanceID       string
	Channel          string
	DesiredVolume    string
}

var xmlStart = []byte("<?xml version='1.0' encoding='utf-8'?>")

func sendKeySoapBuild(key string) ([]byte, error) {
	d := SendKeyEnvelope{
		XMLName:  xml.Name{},
		Schema:   soapEnvelopeSchema,
		Encoding: soapEncodingSchema,
		SendKeyBody: SendKeyBody{
			XMLName: xml.Name{},
			SendKeyAction: SendKeyAction{
				XMLName:        xml.Name{},
				NetworkControl: networkControlSchema,
				KeyEvent:       key,
			},
		},
	}

	b, err := xml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("sendKeySoapBuild Marshal error: %w", err)
	}

	return append(append([]byte{}, xmlStart...), b...), nil
}

func getMuteSoapBuild() ([]byte, error) {
	d := GetMuteEnvelope{
		XMLName:  xml.Name{},
		Schema:   soapEnvelopeSchema,
		Encoding: soapEncodingSchema,
		GetMuteBody: GetMuteBody{
			XMLName: xml.Name{},
			GetMuteAction: GetMuteAction{
				XMLName:          xml.Name{},
				RenderingControl: renderingCtlSchema,
				InstanceID:       "0",
				Channel:          "Master",
			},
		},
	}

	b, err := xml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("getMuteSoapBuild Marshal error: %w", err)
	}

	return append(append([]byte{}, xmlStart...), b...), nil
}

func setMuteSoapBuild(m string) ([]byte, error) {
	d := SetMuteEnvelope{
		XMLName:  xml.Name{},
		Schema:   soapEnvelopeSchema,
		Encoding: soapEncodingSchema,
		SetMuteBody: SetMuteBody{
			XMLName: xml.Name{},
			SetMuteAction: SetMuteAction{
				XMLName:          xml.Name{},
				RenderingControl: renderingCtlSchema,
				InstanceID:       "0",
				Channel:          "Master",
				DesiredMute:      m,
			},
		},
	}

	b, err := xml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("setMuteSoapBuild Marshal error: %w", err)
	}

	return append(append([]byte{}, xmlStart...), b...), nil
}

func getVolumeSoapBuild() ([]byte, error) {
	d := GetVolumeEnvelope{
		XMLName:  xml.Name{},
		Schema:   soapEnvelopeSchema,
		Encoding: soapEncodingSchema,
		GetVolumeBody: GetVolumeBody{
			XMLName: xml.Name{},
			GetVolumeAction: GetVolumeAction{
				XMLName:          xml.Name{},
				RenderingControl: renderingCtlSchema,
				InstanceID:       "0",
				Channel:          "Master",
			},
		},
	}

	b, err := xml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("getVolumeSoapBuild Marshal error: %w", err)
	}

	return append(append([]byte{}, xmlStart...), b...), nil
}

func setVolumeSoapBuild(v int) ([]byte, error) {
	d := SetVolumeEnvelope{
		XMLName:  xml.Name{},
		Schema:   soapEnvelopeSchema,
		Encoding: soapEncodingSchema,
		SetVolumeBody: SetVolumeBody{
			XMLName: xml.Name{},
			SetVolumeAction: SetVolumeAction{
				XMLName:          xml.Name{},
				RenderingControl: renderingCtlSchema,
				InstanceID:       "0",
				Channel:          "Master",
				DesiredVolume:    strconv.Itoa(v),
			},
		},
	}

	b, err := xml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("setVolumeSoapBuild Marshal error: %w", err)
	}

	return append(append([]byte{}, xmlStart...), b...), nil
}
