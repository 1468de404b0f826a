package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baptisterajaut/h2c-api/internal/inject"
)

func rootCmd() *cobra.Command {
	var hosts []string
	var exposeHostPort string
	var kubeconfigPath string

	cmd := &cobra.Command{
		Use:   "h2c-inject <compose-file>",
		Short: "Rewrite a compose file to run behind the h2c façade API server",
		Long: `h2c-inject issues a self-signed CA and leaf certificate, synthesises a
fake ServiceAccount bundle, probes local container-runtime sockets for
mountability, and rewrites every service in the given compose file to mount
the bundle and locate the façade — emitting compose.override.yml (and,
when host exposure is requested, a kubeconfig-style client config) beside
the input file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := inject.Options{
				ComposePath:    args[0],
				Hosts:          hosts,
				ExposeHost:     cmd.Flags().Changed("expose-host-port"),
				ExposeHostPort: exposeHostPort,
				KubeconfigPath: kubeconfigPath,
			}

			result, err := inject.Run(context.Background(), opts)
			if err != nil {
				return err
			}

			fmt.Printf("wrote %s\n", result.OverridePath)
			fmt.Printf("service account bundle in %s\n", result.SABundleDir)
			if result.RuntimeSocket != "" {
				fmt.Printf("runtime bridge enabled via %s\n", result.RuntimeSocket)
			} else {
				fmt.Println("no usable runtime socket found; bridge features disabled")
			}
			if result.KubeconfigPath != "" {
				fmt.Printf("wrote %s\n", result.KubeconfigPath)
			}
			fmt.Printf("leaf certificate SANs: %v\n", result.SANs)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&hosts, "host", nil, "extra SAN and (first occurrence) client-config server hostname; repeatable, default localhost")
	cmd.Flags().StringVar(&exposeHostPort, "expose-host-port", "", "publish the façade port on the host and emit a client config; PORT optional, default "+strconv.Itoa(6443))
	cmd.Flags().Lookup("expose-host-port").NoOptDefVal = "6443"

	return cmd
}
