package sources

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/vitistack/isc-dhcp-deployer/pkg/models/dhcpmodels"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// FromFile loads a raw configuration from a yaml or json file. The format is
// taken from the file extension.
func FromFile(path string) (dhcpmodels.RawConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return dhcpmodels.RawConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

// FromBytes decodes a raw configuration; format is "yaml" or "json".
func FromBytes(data []byte, format string) (dhcpmodels.RawConfig, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return dhcpmodels.RawConfig{}, fmt.Errorf("parse %s config: %w", format, err)
	}
	return decode(v)
}

// FromConfigMap fetches namespace/name and decodes the raw configuration
// stored under key.
func FromConfigMap(ctx context.Context, kube kubernetes.Interface, namespace, name, key string) (dhcpmodels.RawConfig, error) {
	cm, err := kube.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return dhcpmodels.RawConfig{}, err
	}
	return FromConfigMapObject(cm, key)
}

// FromConfigMapObject decodes the raw configuration stored under key of cm.
func FromConfigMapObject(cm *corev1.ConfigMap, key string) (dhcpmodels.RawConfig, error) {
	data, ok := cm.Data[key]
	if !ok {
		return dhcpmodels.RawConfig{}, fmt.Errorf("configmap %s/%s has no key %q", cm.Namespace, cm.Name, key)
	}
	return FromBytes([]byte(data), formatFor(key))
}

func formatFor(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return "json"
	}
	return "yaml"
}

func decode(v *viper.Viper) (dhcpmodels.RawConfig, error) {
	var raw dhcpmodels.RawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return dhcpmodels.RawConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return raw, nil
}
