package facts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/factsd/factsd/pkg/plugin"
)

func newFakeCluster(t *testing.T, nodes ...string) *fake.Clientset {
	t.Helper()
	objects := make([]runtime.Object, 0, len(nodes))
	for _, name := range nodes {
		objects = append(objects, &corev1.Node{
			ObjectMeta: metav1.ObjectMeta{Name: name},
		})
	}

	client := fake.NewClientset(objects...)
	discovery := client.Discovery().(*fakediscovery.FakeDiscovery)
	discovery.FakedServerVersion = &version.Info{
		GitVersion: "v1.31.2",
		Platform:   "linux/amd64",
		GoVersion:  "go1.22.8",
	}
	return client
}

func TestKubernetes_Collect(t *testing.T) {
	k := &Kubernetes{ClientSet: newFakeCluster(t, "node-a", "node-b")}

	doc, err := k.Collect(context.Background(), plugin.Config{})
	require.NoError(t, err)

	server, ok := doc["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "v1.31.2", server["version"])
	assert.Equal(t, "linux/amd64", server["platform"])
	assert.Equal(t, "go1.22.8", server["go_version"])

	nodes, ok := doc["nodes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, nodes["count"])
	assert.ElementsMatch(t, []string{"node-a", "node-b"}, nodes["names"])
}

func TestKubernetes_ExcludeNodes(t *testing.T) {
	k := &Kubernetes{ClientSet: newFakeCluster(t, "node-a")}

	cfg, err := plugin.ParseConfig([]byte(`{"include_nodes": false}`))
	require.NoError(t, err)

	doc, err := k.Collect(context.Background(), cfg)
	require.NoError(t, err)

	assert.Contains(t, doc, "server")
	assert.NotContains(t, doc, "nodes")
}

func TestKubernetes_NodeListDegradesInPlace(t *testing.T) {
	client := newFakeCluster(t)
	client.PrependReactor("list", "nodes",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, fmt.Errorf("nodes is forbidden")
		})
	k := &Kubernetes{ClientSet: client}

	doc, err := k.Collect(context.Background(), plugin.Config{})
	require.NoError(t, err)

	assert.Contains(t, doc, "server", "server facts survive the RBAC failure")

	nodes, ok := doc["nodes"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, nodes, plugin.ErrorKey)
}
