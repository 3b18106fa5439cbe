package main

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/types"
)

func parseNamespacedName(s string) (types.NamespacedName, error) {
	parts := strings.Split(s, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return types.NamespacedName{Name: parts[0]}, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return types.NamespacedName{Namespace: parts[0], Name: parts[1]}, nil
	default:
		return types.NamespacedName{}, fmt.Errorf("invalid configmap reference %q, expected namespace/name", s)
	}
}
