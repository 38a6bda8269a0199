package facts

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/factsd/factsd/pkg/plugin"
)

// KubernetesName is the collector name hosts dispatch on.
const KubernetesName = "kubernetes"

// Kubernetes reports cluster facts visible from this node: API server
// version and, optionally, the node inventory. Outside a cluster the
// collection degrades to an error result at the dispatch boundary.
type Kubernetes struct {
	// ClientSet is injected in tests; when nil, the in-cluster
	// configuration is used.
	ClientSet kubernetes.Interface
}

// Descriptor implements registry.Collector.
func (k *Kubernetes) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: KubernetesName,
		ConfigSchema: plugin.ObjectSchema(map[string]plugin.Property{
			"include_nodes": {
				Type:        plugin.TypeBoolean,
				Default:     true,
				Description: "Include the cluster node inventory",
			},
		}),
	}
}

// Collect queries the API server. The clientset is built per invocation
// when not injected, so no connection state outlives the call.
func (k *Kubernetes) Collect(ctx context.Context, cfg plugin.Config) (plugin.Document, error) {
	client := k.ClientSet
	if client == nil {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("not running in a cluster: %w", err)
		}
		client, err = kubernetes.NewForConfig(restConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes client: %w", err)
		}
	}

	serverVersion, err := client.Discovery().ServerVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get kubernetes version: %w", err)
	}

	doc := plugin.Document{
		"server": map[string]any{
			"version":    serverVersion.GitVersion,
			"platform":   serverVersion.Platform,
			"go_version": serverVersion.GoVersion,
		},
	}

	if cfg.Bool("include_nodes", true) {
		nodes, err := client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
		if err != nil {
			// Node listing needs RBAC the pod may not have; report in
			// place and keep the server facts.
			doc["nodes"] = map[string]any{plugin.ErrorKey: fmt.Sprintf("node inventory unavailable: %v", err)}
			return doc, nil
		}
		names := make([]string, 0, len(nodes.Items))
		for _, node := range nodes.Items {
			names = append(names, node.Name)
		}
		doc["nodes"] = map[string]any{
			"count": len(nodes.Items),
			"names": names,
		}
	}

	return doc, nil
}
