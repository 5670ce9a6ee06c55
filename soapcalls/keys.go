package soapcalls

// Remote-control key events understood by X_SendKey.
const (
	KeyPower      = "NRC_POWER-ONOFF"
	KeyMute       = "NRC_MUTE-ONOFF"
	KeyVolumeUp   = "NRC_VOLUP-ONOFF"
	KeyVolumeDown = "NRC_VOLDOWN-ONOFF"
	KeyHome       = "NRC_HOME-ONOFF"
)
