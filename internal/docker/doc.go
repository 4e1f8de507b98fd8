// Package docker wraps the Docker Engine SDK for container-mode simulator
// launches.
//
// It handles Docker socket auto-detection across platforms, runs the CARLA
// image with GPU access and published RPC/streaming ports, and persists the
// launch metadata in "carla." container labels so the simulator can be
// rediscovered and stopped later without any state file.
package docker
