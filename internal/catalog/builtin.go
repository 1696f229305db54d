package catalog

// builtinEntries seeds Default. Order matters: when two groups serve the same
// kind, the earlier entry answers unqualified lookups.
func builtinEntries() []Entry {
	return []Entry{
		// Core/v1 resources
		{Name: "pods", Singular: "pod", ShortNames: []string{"po"}, Kind: "Pod", Version: "v1", Namespaced: true},
		{Name: "services", Singular: "service", ShortNames: []string{"svc"}, Kind: "Service", Version: "v1", Namespaced: true},
		{Name: "nodes", Singular: "node", ShortNames: []string{"no"}, Kind: "Node", Version: "v1"},
		{Name: "namespaces", Singular: "namespace", ShortNames: []string{"ns"}, Kind: "Namespace", Version: "v1"},
		{Name: "configmaps", Singular: "configmap", ShortNames: []string{"cm"}, Kind: "ConfigMap", Version: "v1", Namespaced: true},
		{Name: "secrets", Singular: "secret", Kind: "Secret", Version: "v1", Namespaced: true},
		{Name: "persistentvolumes", Singular: "persistentvolume", ShortNames: []string{"pv"}, Kind: "PersistentVolume", Version: "v1"},
		{Name: "persistentvolumeclaims", Singular: "persistentvolumeclaim", ShortNames: []string{"pvc"}, Kind: "PersistentVolumeClaim", Version: "v1", Namespaced: true},
		{Name: "serviceaccounts", Singular: "serviceaccount", ShortNames: []string{"sa"}, Kind: "ServiceAccount", Version: "v1", Namespaced: true},
		{Name: "endpoints", Singular: "endpoints", ShortNames: []string{"ep"}, Kind: "Endpoints", Version: "v1", Namespaced: true},
		{Name: "events", Singular: "event", ShortNames: []string{"ev"}, Kind: "Event", Version: "v1", Namespaced: true},
		{Name: "limitranges", Singular: "limitrange", ShortNames: []string{"limits"}, Kind: "LimitRange", Version: "v1", Namespaced: true},
		{Name: "resourcequotas", Singular: "resourcequota", ShortNames: []string{"quota"}, Kind: "ResourceQuota", Version: "v1", Namespaced: true},
		{Name: "replicationcontrollers", Singular: "replicationcontroller", ShortNames: []string{"rc"}, Kind: "ReplicationController", Version: "v1", Namespaced: true},

		// Apps/v1 resources
		{Name: "deployments", Singular: "deployment", ShortNames: []string{"deploy"}, Kind: "Deployment", Group: "apps", Version: "v1", Namespaced: true},
		{Name: "replicasets", Singular: "replicaset", ShortNames: []string{"rs"}, Kind: "ReplicaSet", Group: "apps", Version: "v1", Namespaced: true},
		{Name: "daemonsets", Singular: "daemonset", ShortNames: []string{"ds"}, Kind: "DaemonSet", Group: "apps", Version: "v1", Namespaced: true},
		{Name: "statefulsets", Singular: "statefulset", ShortNames: []string{"sts"}, Kind: "StatefulSet", Group: "apps", Version: "v1", Namespaced: true},

		// Batch resources
		{Name: "jobs", Singular: "job", Kind: "Job", Group: "batch", Version: "v1", Namespaced: true},
		{Name: "cronjobs", Singular: "cronjob", ShortNames: []string{"cj"}, Kind: "CronJob", Group: "batch", Version: "v1", Namespaced: true},

		// Networking resources
		{Name: "ingresses", Singular: "ingress", ShortNames: []string{"ing"}, Kind: "Ingress", Group: "networking.k8s.io", Version: "v1", Namespaced: true},
		{Name: "networkpolicies", Singular: "networkpolicy", ShortNames: []string{"netpol"}, Kind: "NetworkPolicy", Group: "networking.k8s.io", Version: "v1", Namespaced: true},

		// RBAC resources
		{Name: "roles", Singular: "role", Kind: "Role", Group: "rbac.authorization.k8s.io", Version: "v1", Namespaced: true},
		{Name: "rolebindings", Singular: "rolebinding", Kind: "RoleBinding", Group: "rbac.authorization.k8s.io", Version: "v1", Namespaced: true},
		{Name: "clusterroles", Singular: "clusterrole", Kind: "ClusterRole", Group: "rbac.authorization.k8s.io", Version: "v1"},
		{Name: "clusterrolebindings", Singular: "clusterrolebinding", Kind: "ClusterRoleBinding", Group: "rbac.authorization.k8s.io", Version: "v1"},

		// Autoscaling, policy and extensions
		{Name: "horizontalpodautoscalers", Singular: "horizontalpodautoscaler", ShortNames: []string{"hpa"}, Kind: "HorizontalPodAutoscaler", Group: "autoscaling", Version: "v2", Namespaced: true},
		{Name: "poddisruptionbudgets", Singular: "poddisruptionbudget", ShortNames: []string{"pdb"}, Kind: "PodDisruptionBudget", Group: "policy", Version: "v1", Namespaced: true},
		{Name: "customresourcedefinitions", Singular: "customresourcedefinition", ShortNames: []string{"crd", "crds"}, Kind: "CustomResourceDefinition", Group: "apiextensions.k8s.io", Version: "v1"},
		{Name: "storageclasses", Singular: "storageclass", ShortNames: []string{"sc"}, Kind: "StorageClass", Group: "storage.k8s.io", Version: "v1"},

		// OpenShift resources
		{Name: "routes", Singular: "route", Kind: "Route", Group: "route.openshift.io", Version: "v1", Namespaced: true},
		{Name: "templates", Singular: "template", Kind: "Template", Group: "template.openshift.io", Version: "v1", Namespaced: true},
		{Name: "processedtemplates", Singular: "processedtemplate", Kind: "Template", Group: "template.openshift.io", Version: "v1", Namespaced: true},
		{Name: "templateinstances", Singular: "templateinstance", Kind: "TemplateInstance", Group: "template.openshift.io", Version: "v1", Namespaced: true},
		{Name: "projects", Singular: "project", Kind: "Project", Group: "project.openshift.io", Version: "v1"},
		{Name: "projectrequests", Singular: "projectrequest", Kind: "ProjectRequest", Group: "project.openshift.io", Version: "v1"},
		{Name: "builds", Singular: "build", Kind: "Build", Group: "build.openshift.io", Version: "v1", Namespaced: true},
		{Name: "buildconfigs", Singular: "buildconfig", ShortNames: []string{"bc"}, Kind: "BuildConfig", Group: "build.openshift.io", Version: "v1", Namespaced: true},
		{Name: "imagestreams", Singular: "imagestream", ShortNames: []string{"is"}, Kind: "ImageStream", Group: "image.openshift.io", Version: "v1", Namespaced: true},
		{Name: "imagestreamtags", Singular: "imagestreamtag", ShortNames: []string{"istag"}, Kind: "ImageStreamTag", Group: "image.openshift.io", Version: "v1", Namespaced: true},
		{Name: "deploymentconfigs", Singular: "deploymentconfig", ShortNames: []string{"dc"}, Kind: "DeploymentConfig", Group: "apps.openshift.io", Version: "v1", Namespaced: true},
		{Name: "users", Singular: "user", Kind: "User", Group: "user.openshift.io", Version: "v1"},
		{Name: "groups", Singular: "group", Kind: "Group", Group: "user.openshift.io", Version: "v1"},
		{Name: "oauthclients", Singular: "oauthclient", Kind: "OAuthClient", Group: "oauth.openshift.io", Version: "v1"},
		{Name: "clusterversions", Singular: "clusterversion", Kind: "ClusterVersion", Group: "config.openshift.io", Version: "v1"},
		{Name: "clusteroperators", Singular: "clusteroperator", ShortNames: []string{"co"}, Kind: "ClusterOperator", Group: "config.openshift.io", Version: "v1"},
		{Name: "infrastructures", Singular: "infrastructure", Kind: "Infrastructure", Group: "config.openshift.io", Version: "v1"},
	}
}
