package main

import (
	"flag"
	"fmt"
	"os"
)

const (
	commandInit = "init"
	commandHelp = "help"
)

func parseCommandLine() {
	command := os.Args[1]

	switch command {
	case commandInit:
		fs := flag.NewFlagSet(commandInit, flag.ExitOnError)
		deviceID := fs.String("device-id", "", "device identifier (generated when empty)")
		port := fs.Int("port", 8080, "REST listen port")
		if err := fs.Parse(os.Args[2:]); err != nil {
			zlog.Fatal(err)
		}
		handlerInit(*deviceID, *port)
	case commandHelp:
		printHelp()
		os.Exit(0)
	default:
		fmt.Printf("Unknown command %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func handlerInit(deviceID string, port int) {
	cfg.Device.DeviceID = deviceID
	cfg.Rest.Port = port
	cfg.Normalize()

	cfgHandler.Update(cfg)
	cfgHandler.Save()

	zlog.Info().Str("path", cfgHandler.GetPath()).Msg("initialization successfully complete")
}

func printHelp() {
	fmt.Printf("Usage: ./relay command args\n")
	fmt.Printf(" init	- write the starter configuration file\n")
	fmt.Printf(" help	- show this help\n")
	fmt.Printf("Get help for a specific command: ./relay command -h\n")
}
