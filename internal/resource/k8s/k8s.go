/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package k8s is the Spark-on-Kubernetes resource.Manager
// implementation: it creates a driver Pod plus a headless Service per
// engine, observes the driver Pod's phase, and tears both down on
// cleanup. Grounded on
// original_source/rucat_state_monitor/src/resource_manager/k8s_client.rs,
// reimplemented over k8s.io/client-go's typed clientset instead of the
// original's kube-rs dynamic client.
package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes"

	"rucat.dev/rucat/internal/engine"
	"rucat.dev/rucat/internal/resource"
	"rucat.dev/rucat/internal/rucaterr"
)

// ServiceSelectorLabel is the label key used to bind the headless
// Service to its driver Pod, mirroring the original's
// SPARK_SERVICE_SELECTOR.
const ServiceSelectorLabel = "rucat-engine-selector"

// SparkVersions is the allow-list create_resource validates
// engine.Version against; versions outside it are rejected rather than
// silently attempted.
var SparkVersions = []string{"3.5.3", "3.5.4"}

func isSupportedVersion(v engine.Version) bool {
	for _, s := range SparkVersions {
		if string(v) == s {
			return true
		}
	}
	return false
}

func sparkAppID(id engine.Id) string       { return "rucat-spark-" + id.String() }
func sparkDriverName(id engine.Id) string  { return sparkAppID(id) + "-driver" }
func sparkServiceName(id engine.Id) string { return sparkAppID(id) }
func sparkDockerImage(v engine.Version) string {
	return fmt.Sprintf("apache/spark:%s", v)
}
func sparkConnectPackage(v engine.Version) string {
	return fmt.Sprintf("org.apache.spark:spark-connect_2.12:%s", v)
}

func intOrString(port int32) intstr.IntOrString {
	return intstr.FromInt32(port)
}

// presetConfig returns the Spark submit configuration this resource
// manager owns and users may not override, in the same fixed key order
// as the original's BTreeMap (kept as an explicit slice here since Go
// maps don't iterate in insertion order and the submit-args order must
// be deterministic for tests).
func presetConfig(id engine.Id, version engine.Version) []struct{ Key, Value string } {
	return []struct{ Key, Value string }{
		{"spark.app.id", sparkAppID(id)},
		{"spark.driver.extraJavaOptions", "-Divy.cache.dir=/tmp -Divy.home=/tmp"},
		{"spark.driver.host", sparkServiceName(id)},
		{"spark.kubernetes.container.image", sparkDockerImage(version)},
		{"spark.kubernetes.driver.pod.name", sparkDriverName(id)},
		{"spark.kubernetes.executor.podNamePrefix", sparkAppID(id)},
	}
}

// presetKeys is presetConfig's key set, used only for the reserved-key
// rejection scan.
func presetKeys(id engine.Id, version engine.Version) []string {
	preset := presetConfig(id, version)
	keys := make([]string, len(preset))
	for i, kv := range preset {
		keys[i] = kv.Key
	}
	return keys
}

// toSparkSubmitArgs builds the spark-submit argument vector: a fixed
// master/deploy-mode/packages prefix, then one "--conf k=v" pair per
// preset key (in preset order) followed by one per user-supplied key
// (in sorted order, for deterministic testing). Fails with NotAllowed
// if userConfig sets any reserved key.
func toSparkSubmitArgs(id engine.Id, version engine.Version, userConfig engine.Config) ([]string, error) {
	if key, found := engine.ContainsAny(userConfig, presetKeys(id, version)); found {
		return nil, rucaterr.NotAllowedf("the config %s is not allowed as it is reserved", key)
	}

	args := []string{
		"--master", "k8s://https://kubernetes:443",
		"--deploy-mode", "client",
		"--packages", sparkConnectPackage(version),
	}
	for _, kv := range presetConfig(id, version) {
		args = append(args, "--conf", fmt.Sprintf("%s=%s", kv.Key, kv.Value))
	}
	for _, k := range engine.SortedKeys(userConfig) {
		args = append(args, "--conf", fmt.Sprintf("%s=%s", k, userConfig[k]))
	}
	return args, nil
}

// Manager is the resource.Manager implementation for the Spark variant.
// Namespace defaults to "default" if empty.
type Manager struct {
	clientset kubernetes.Interface
	namespace string
}

// New returns a Manager operating against clientset in namespace. An
// empty namespace defaults to "default", matching the original's
// hardcoded Api::namespaced(..., "default").
func New(clientset kubernetes.Interface, namespace string) *Manager {
	if namespace == "" {
		namespace = "default"
	}
	return &Manager{clientset: clientset, namespace: namespace}
}

var _ resource.Manager = (*Manager)(nil)

func (m *Manager) CreateResource(ctx context.Context, id engine.Id, version engine.Version, cfg engine.Config) error {
	if !isSupportedVersion(version) {
		return rucaterr.NotAllowedf("spark version %s is not supported, supported versions: %v", version, SparkVersions)
	}
	args, err := toSparkSubmitArgs(id, version, cfg)
	if err != nil {
		return err
	}

	appID := sparkAppID(id)
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:   sparkDriverName(id),
			Labels: map[string]string{ServiceSelectorLabel: appID},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:  "spark-driver",
					Image: sparkDockerImage(version),
					Ports: []corev1.ContainerPort{
						{ContainerPort: 4040},
						{ContainerPort: 7078},
						{ContainerPort: 7079},
						{ContainerPort: 15002},
					},
					Env: []corev1.EnvVar{
						// let connect server run in the foreground
						{Name: "SPARK_NO_DAEMONIZE", Value: "true"},
					},
					Command: []string{"/opt/spark/sbin/start-connect-server.sh"},
					Args:    args,
				},
			},
		},
	}
	if _, err := m.clientset.CoreV1().Pods(m.namespace).Create(ctx, pod, metav1.CreateOptions{}); err != nil {
		return rucaterr.Wrap(rucaterr.FailToStartEngine, err, "creating driver pod")
	}

	service := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name: sparkServiceName(id),
		},
		Spec: corev1.ServiceSpec{
			Type:      corev1.ServiceTypeClusterIP,
			ClusterIP: corev1.ClusterIPNone,
			Selector:  map[string]string{ServiceSelectorLabel: appID},
			Ports: []corev1.ServicePort{
				{Name: "spark-ui", Protocol: corev1.ProtocolTCP, Port: 4040, TargetPort: intOrString(4040)},
				{Name: "driver-rpc-port", Protocol: corev1.ProtocolTCP, Port: 7078, TargetPort: intOrString(7078)},
				{Name: "block-manager", Protocol: corev1.ProtocolTCP, Port: 7079, TargetPort: intOrString(7079)},
				{Name: "spark-connect", Protocol: corev1.ProtocolTCP, Port: 15002, TargetPort: intOrString(15002)},
			},
		},
	}
	if _, err := m.clientset.CoreV1().Services(m.namespace).Create(ctx, service, metav1.CreateOptions{}); err != nil {
		return rucaterr.Wrap(rucaterr.FailToStartEngine, err, "creating headless service")
	}
	return nil
}

func (m *Manager) GetResourceState(ctx context.Context, id engine.Id) resource.State {
	pod, err := m.clientset.CoreV1().Pods(m.namespace).Get(ctx, sparkDriverName(id), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return resource.NotExisted
	}
	if err != nil {
		return resource.Unknown
	}
	return podPhaseToState(pod.Status.Phase)
}

func podPhaseToState(phase corev1.PodPhase) resource.State {
	switch phase {
	case corev1.PodPending:
		return resource.Pending
	case corev1.PodRunning:
		return resource.Running
	case corev1.PodSucceeded:
		return resource.Succeeded
	case corev1.PodFailed:
		return resource.Failed
	default:
		return resource.Unknown
	}
}

func (m *Manager) CleanResource(ctx context.Context, id engine.Id) error {
	if err := m.clientset.CoreV1().Pods(m.namespace).Delete(ctx, sparkDriverName(id), metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return rucaterr.Wrap(rucaterr.FailToDeleteEngine, err, "deleting driver pod")
	}
	if err := m.clientset.CoreV1().Services(m.namespace).Delete(ctx, sparkServiceName(id), metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return rucaterr.Wrap(rucaterr.FailToDeleteEngine, err, "deleting headless service")
	}
	return nil
}
