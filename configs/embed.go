// Package configs provides the embedded configuration templates written by
// `chatsift config init`.
//
// Templates are embedded at build time with go:embed, so every install can
// write them whether it was built from source or shipped as a release
// binary. Each template is a valid config file as written: only the schema
// version is active, and the commented values match the built-in defaults
// in internal/config.
package configs

import _ "embed"

// UserConfigTemplate seeds the user config at
// $XDG_CONFIG_HOME/chatsift/config.yaml. Written by `chatsift config init`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate seeds a project-level .chatsift.yaml next to the
// archives it describes. Written by `chatsift config init --project`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
