package scope

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"k8s.io/client-go/tools/clientcmd"

	"github.com/giantswarm/kubedriver/internal/transport/ssh"
)

// DefaultClientPath is the client binary used when nothing else is configured.
const DefaultClientPath = "oc"

// Defaults are the process-wide fallbacks at the bottom of every chain.
type Defaults struct {
	ClientPath string
	Server     string
	Kubeconfig string
	Namespace  string
	Token      string
	LogLevel   int

	// SSH, when set, routes every invocation through a remote shell on that
	// host.
	SSH *ssh.Config

	// Timeout bounds everything run under the root scope. Zero means no
	// deadline.
	Timeout time.Duration
}

// DefaultsFromEnv reads Defaults from the environment.
//
//	KUBEDRIVER_CLIENT_PATH   client binary (default: oc)
//	KUBEDRIVER_SERVER        API server URL, insecure:// skips TLS verification
//	KUBECONFIG               kubeconfig path
//	KUBEDRIVER_NAMESPACE     namespace
//	KUBEDRIVER_TOKEN         bearer token
//	KUBEDRIVER_LOGLEVEL      client --loglevel
//	KUBEDRIVER_TIMEOUT       overall deadline, e.g. 30m
//	KUBEDRIVER_SSH_HOST      run the client on this host over SSH
//	KUBEDRIVER_SSH_PORT      (default: 22)
//	KUBEDRIVER_SSH_USER      (default: $USER)
//	KUBEDRIVER_SSH_KEY       private key path
//	KUBEDRIVER_SSH_KNOWN_HOSTS known_hosts path, "none" disables checking
func DefaultsFromEnv() Defaults {
	d := Defaults{
		ClientPath: getEnvOrDefault("KUBEDRIVER_CLIENT_PATH", DefaultClientPath),
		Server:     os.Getenv("KUBEDRIVER_SERVER"),
		Kubeconfig: expandHome(os.Getenv("KUBECONFIG")),
		Namespace:  os.Getenv("KUBEDRIVER_NAMESPACE"),
		Token:      os.Getenv("KUBEDRIVER_TOKEN"),
		LogLevel:   getEnvIntOrDefault("KUBEDRIVER_LOGLEVEL", 0),
		Timeout:    getEnvDurationOrDefault("KUBEDRIVER_TIMEOUT", 0),
	}

	if host := os.Getenv("KUBEDRIVER_SSH_HOST"); host != "" {
		config := ssh.DefaultConfig(host, getEnvOrDefault("KUBEDRIVER_SSH_USER", os.Getenv("USER")))
		config.Port = getEnvIntOrDefault("KUBEDRIVER_SSH_PORT", config.Port)
		config.PrivateKeyPath = expandHome(os.Getenv("KUBEDRIVER_SSH_KEY"))
		switch knownHosts := os.Getenv("KUBEDRIVER_SSH_KNOWN_HOSTS"); knownHosts {
		case "":
		case "none":
			config.StrictHostKeyChecking = false
		default:
			config.KnownHostsPath = expandHome(knownHosts)
		}
		d.SSH = config
	}

	return d
}

// KubeconfigNamespace returns the namespace of the current context in the
// kubeconfig at path, or in the default kubeconfig when path is empty. It
// returns "default" when the context names none and "" when no kubeconfig
// can be loaded.
func KubeconfigNamespace(path string) string {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		loadingRules.ExplicitPath = path
	}

	config := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{},
	)
	namespace, _, err := config.Namespace()
	if err != nil {
		return ""
	}
	return namespace
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
