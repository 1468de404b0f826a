package inject

import (
	"fmt"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// WriteKubeconfig emits a kubeconfig naming host as the server, embedding
// the CA inline and carrying the fixed token, via client-go's own clientcmd
// writer rather than a hand-rolled document — the file it produces loads
// through clientcmd.BuildConfigFromFlags exactly like any cluster's own
// kubeconfig would.
func WriteKubeconfig(path, host, port string, caPEM []byte) error {
	server := fmt.Sprintf("https://%s:%s", host, port)

	cfg := clientcmdapi.NewConfig()
	cfg.Clusters["h2c"] = &clientcmdapi.Cluster{
		Server:                   server,
		CertificateAuthorityData: caPEM,
	}
	cfg.AuthInfos["h2c"] = &clientcmdapi.AuthInfo{
		Token: fixedToken,
	}
	cfg.Contexts["h2c"] = &clientcmdapi.Context{
		Cluster:  "h2c",
		AuthInfo: "h2c",
	}
	cfg.CurrentContext = "h2c"

	if err := clientcmd.WriteToFile(*cfg, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
