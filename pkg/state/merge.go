package state

import (
	"sort"

	"github.com/argolocal/argolocal/pkg/k8s"
)

// ExpectedComponents are the workloads of a standard ArgoCD installation
var ExpectedComponents = []string{
	"argocd-application-controller",
	"argocd-applicationset-controller",
	"argocd-dex-server",
	"argocd-notifications-controller",
	"argocd-redis",
	"argocd-repo-server",
	"argocd-server",
}

// MergeExpected combines discovered component state with the expected set.
// Expected components without pods get status "Not Found"; extra discovered
// components are kept. The result is sorted by name.
func MergeExpected(discovered []k8s.ComponentStatus, expected []string) []k8s.ComponentStatus {
	byName := make(map[string]k8s.ComponentStatus, len(discovered))
	for _, c := range discovered {
		byName[c.Name] = c
	}
	for _, name := range expected {
		if _, ok := byName[name]; !ok {
			byName[name] = k8s.ComponentStatus{Name: name, Status: "Not Found"}
		}
	}

	result := make([]k8s.ComponentStatus, 0, len(byName))
	for _, c := range byName {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
