// Package cmd provides the command-line interface for kubedriver.
//
// Every command builds a root scope from the global flags and the KUBEDRIVER_*
// environment, then drives the configured client binary through the
// selector and resource packages:
//
//	kubedriver get KIND... [-l k=v] [--field k=v] [-A] [--namespaces a,b] [-o names|json|yaml]
//	kubedriver wait KIND... --for PATH=VALUE [--fail PATH=VALUE] [--min N]
//	kubedriver label TARGET... KEY=VALUE KEY- [--overwrite] [--annotate]
//	kubedriver describe TARGET...
//	kubedriver api-resources [--api-group GROUP]
//	kubedriver version
//	kubedriver self-update
//
// Global flags:
//
//	--client        client binary, e.g. oc or kubectl
//	--server        API server URL; insecure:// skips TLS verification
//	--kubeconfig    kubeconfig path
//	-n, --namespace namespace
//	--token         bearer token
//	--timeout       overall deadline for the command
//	--debug         log every client invocation
//	--metrics-addr  serve Prometheus metrics while the command runs
package cmd
