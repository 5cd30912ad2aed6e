package main

import (
	"flag"
	"log"
	"net"
	"time"

	vnc "github.com/amitbet/vncengine"
	"github.com/amitbet/vncengine/recorder"
)

func main() {
	out := flag.String("out", "session.avi", "output AVI file")
	password := flag.String("password", "", "password for VNC authentication")
	fps := flag.Int("fps", 5, "frames per second")
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("usage: record [flags] host:port")
	}

	nc, err := net.DialTimeout("tcp", flag.Arg(0), 5*time.Second)
	if err != nil {
		log.Fatalf("error connecting to VNC host: %v", err)
	}

	conn, err := vnc.NewConnector(nc).
		SetAuthFunc(func() (string, error) { return *password, nil }).
		AddEncoding(vnc.EncTight).
		AddEncoding(vnc.EncZRLE).
		AddEncoding(vnc.EncCopyRect).
		AddEncoding(vnc.EncRaw).
		AddEncoding(vnc.EncDesktopSizePseudo).
		Build()
	if err != nil {
		log.Fatalf("error building session: %v", err)
	}
	if err := conn.TryStart(); err != nil {
		log.Fatalf("error negotiating connection: %v", err)
	}

	rec, err := recorder.New(*out, int(conn.Width()), int(conn.Height()), int32(*fps))
	if err != nil {
		log.Fatalf("error opening recording: %v", err)
	}
	defer rec.Close()

	if err := conn.Finish(); err != nil {
		log.Fatalf("error entering main loop: %v", err)
	}
	defer conn.Close()

	frame := time.NewTicker(time.Second / time.Duration(*fps))
	defer frame.Stop()

	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				log.Printf("session ended: %v", conn.Err())
				return
			}
			if err := rec.Handle(ev); err != nil {
				log.Printf("recording stopped: %v", err)
				return
			}
		case <-frame.C:
			if err := rec.Flush(); err != nil {
				log.Printf("error writing frame: %v", err)
				return
			}
			if err := conn.Input(vnc.RefreshInput{}); err != nil {
				return
			}
		}
	}
}
