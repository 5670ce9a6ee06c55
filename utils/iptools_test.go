package utils

import (
	"net"
	"testing"
)

func TestHostFromURL(t *testing.T) {
	tt := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			`Test #1`,
			`http://192.168.0.122:55000/nrc/ddd.xml`,
			`192.168.0.122`,
			false,
		},
		{
			`Test #2`,
			`http://viera.local/dd.xml`,
			`viera.local`,
			false,
		},
		{
			`Test #3`,
			`/relative/path`,
			``,
			true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			out, err := HostFromURL(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("%s: HostFromURL(%q) err = %v, wantErr %v", tc.name, tc.input, err, tc.wantErr)
			}

			if out != tc.want {
				t.Fatalf("%s: got: %s, want: %s.", tc.name, out, tc.want)
			}
		})
	}
}

func TestHostPortIsAlive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %s", err)
	}

	addr := ln.Addr().String()
	if !HostPortIsAlive(addr) {
		t.Fatalf("HostPortIsAlive(%s) = false with a listener", addr)
	}

	ln.Close()

	if HostPortIsAlive(addr) {
		t.Fatalf("HostPortIsAlive(%s) = true after close", addr)
	}
}
