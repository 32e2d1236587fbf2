// Package constants is responsible for defining the constants used in the application.
// It also provides the default payloads directory resolved against the user cache.
package constants

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// Version is the version of the application.
	Version = "Dev"
)

const (
	// CmdName is the name of the mock webhook command.
	CmdName = "dwf-mock-webhook"

	// DefaultLogLevel is the default logging level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// DefaultListenPort is the port the webhook listens on without configuration.
	DefaultListenPort = 5000
)

// Webhook API constants.
const (
	// APIPrefix is the path prefix under which every webhook method is served.
	APIPrefix = "/api/method/"

	// ReceiveIANMethod is the dotted method name for instance availability notifications.
	ReceiveIANMethod = "frappe_dwf.api.receive_ian"

	// CreatePPSMethod is the dotted method name for performed procedure step updates.
	CreatePPSMethod = "frappe_dwf.api.create_pps"

	// CreateUPSMethod is the dotted method name for unified procedure step creation.
	CreateUPSMethod = "frappe_dwf.api.create_ups"
)

// Payload store constants.
const (
	// DefaultFolder is the name of the default root folder for the mock webhook.
	DefaultFolder = "dwf-mock-webhook"

	// DefaultPayloadsFolder is the name of the default payloads folder.
	DefaultPayloadsFolder = "payloads"
)

// Payload store variables.
var (
	// DefaultPayloadsDir is the default directory where received payloads are stored.
	DefaultPayloadsDir = filepath.Join(DefaultFolder, DefaultPayloadsFolder)
)

func init() {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		panic(fmt.Sprintf("Could not fetch cache directory: %v", err))
	}

	DefaultPayloadsDir = filepath.Join(userCacheDir, DefaultFolder, DefaultPayloadsFolder)
}
