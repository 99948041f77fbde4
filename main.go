package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"

	"simple-web-server/httpd"
	"simple-web-server/mirror"
)

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("port %d out of range", p)
	}
	return p, nil
}

func main() {
	page404 := flag.String("page404", "", "HTML file overriding the built-in 404 body")
	tftpAddr := flag.String("tftp", "", "also serve the document root read-only over TFTP on this address (e.g. :69)")
	nfsAddr := flag.String("nfs", "", "also export the document root over NFS on this address (e.g. :2049)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] port\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	port, err := parsePort(flag.Arg(0))
	if err != nil {
		log.Fatalf("invalid port %q: %v", flag.Arg(0), err)
	}

	// Files are served out of the current directory.
	root, err := os.Getwd()
	if err != nil {
		log.Fatalf("resolve working directory: %v", err)
	}
	fs := osfs.New("/")

	cfg := httpd.DefaultConfig(root)
	cfg.Port = port
	cfg.NotFoundPage = *page404

	loggerHTTP := log.New(os.Stdout, "httpd ", log.LstdFlags)
	srv, err := httpd.New(cfg, fs, loggerHTTP)
	if err != nil {
		log.Fatalf("start httpd failure: %v", err)
	}

	if *tftpAddr != "" {
		loggerTFTP := log.New(os.Stdout, "tftp ", log.LstdFlags)
		if _, err := mirror.StartTFTPServer(*tftpAddr, fs, root, loggerTFTP); err != nil {
			log.Fatalf("start tftp failure: %v", err)
		}
	}
	if *nfsAddr != "" {
		loggerNFS := log.New(os.Stdout, "nfs ", log.LstdFlags)
		if _, err := mirror.StartNFSServer(*nfsAddr, fs, root, loggerNFS); err != nil {
			log.Fatalf("start nfs failure: %v", err)
		}
	}

	go func() {
		if err := srv.Serve(); err != nil {
			log.Fatalf("serve failure: %v", err)
		}
	}()

	// Block until termination signal, then release the sockets.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received signal %s, exiting", sig)
	if err := srv.Stop(); err != nil {
		log.Printf("stop failure: %v", err)
	}
}
