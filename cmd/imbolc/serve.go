package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"github.com/schollz/imbolc/internal/backend"
	"github.com/schollz/imbolc/internal/engine"
	"github.com/schollz/imbolc/internal/storage"
)

func newServeCmd() *cobra.Command {
	var oscPort int
	var saveDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the scheduler loop standalone, sending OSC to a synthesis server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(oscPort, saveDir)
		},
	}

	cmd.Flags().IntVar(&oscPort, "osc-port", 57120, "OSC port of the synthesis server")
	cmd.Flags().StringVar(&saveDir, "config", "save", "save directory to load from or create")
	return cmd
}

func runServe(oscPort int, saveDir string) error {
	client := osc.NewClient("localhost", oscPort)
	be := backend.New(client)
	sched := engine.NewScheduler(be)

	snap := loadOrDemoSnapshot(saveDir)
	sched.State().Write(*snap)

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-c
		log.Println("shutting down")
		if err := storage.Save(saveDir, snap); err != nil {
			log.Printf("save on shutdown failed: %v", err)
		}
		cancel()
	}()

	fmt.Printf("serving on OSC port %d, save dir %q (ctrl-c to stop)\n", oscPort, saveDir)
	sched.Run(ctx)
	return nil
}
