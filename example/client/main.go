package main

import (
	"flag"
	"log"
	"net"
	"os"
	"time"

	vnc "github.com/amitbet/vncengine"
	"github.com/amitbet/vncengine/wsconn"
)

func main() {
	wsURL := flag.String("ws", "", "connect over websocket instead of tcp, e.g. ws://host:5901/websockify")
	password := flag.String("password", "", "password for VNC authentication")
	flag.Parse()

	var transport interface {
		Read([]byte) (int, error)
		Write([]byte) (int, error)
		Close() error
	}
	var err error
	if *wsURL != "" {
		transport, err = wsconn.Dial(*wsURL)
	} else {
		if flag.NArg() < 1 {
			log.Fatal("usage: client [-ws url | host:port]")
		}
		transport, err = net.DialTimeout("tcp", flag.Arg(0), 5*time.Second)
	}
	if err != nil {
		log.Fatalf("error connecting to VNC host: %v", err)
	}

	conn, err := vnc.NewConnector(transport).
		SetAuthFunc(func() (string, error) { return *password, nil }).
		AddEncoding(vnc.EncTight).
		AddEncoding(vnc.EncZRLE).
		AddEncoding(vnc.EncCopyRect).
		AddEncoding(vnc.EncRaw).
		AddEncoding(vnc.EncCursorPseudo).
		AddEncoding(vnc.EncDesktopSizePseudo).
		AllowShared(true).
		Build()
	if err != nil {
		log.Fatalf("error building session: %v", err)
	}
	if err := conn.TryStart(); err != nil {
		log.Fatalf("error negotiating connection: %v", err)
	}
	if err := conn.Finish(); err != nil {
		log.Fatalf("error entering main loop: %v", err)
	}
	defer conn.Close()

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.Input(vnc.RefreshInput{}); err != nil {
				return
			}
		}
	}()

	for {
		ev, err := conn.PollEvent()
		if err != nil {
			log.Printf("session ended: %v", err)
			os.Exit(1)
		}
		switch e := ev.(type) {
		case vnc.ResolutionEvent:
			log.Printf("resolution %dx%d", e.Screen.Width, e.Screen.Height)
		case vnc.RawImageEvent:
			log.Printf("image rect %v (%d bytes)", e.Rect, len(e.Data))
		case vnc.CopyEvent:
			log.Printf("copy %v <- %v", e.Dst, e.Src)
		case vnc.TextEvent:
			log.Printf("clipboard: %s", e.Text)
		case vnc.BellEvent:
			log.Printf("bell")
		}
	}
}
