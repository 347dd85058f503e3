/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package constant holds the URL parameter keys and defaults that make up the
// configuration surface read by the cluster dispatch engine.
package constant

// URL field / key separators.
const (
	PathSeparator            = "/"
	KeySeparator             = ":"
	NacosServiceNameSeparator = "@@"
	DefaultCategory          = "providers"
	RemoveValuePrefix        = "-"
	AnyValue                 = "*"
)

// Service identity keys.
const (
	InterfaceKey = "interface"
	GroupKey     = "group"
	VersionKey   = "version"
	EnabledKey   = "enabled"
	CategoryKey  = "category"
	SideKey      = "side"
	TokenKey     = "token"
	WeightKey    = "weight"
	TimestampKey = "timestamp"
	RemoteTimestampKey = "remote.timestamp"
	BeanNameKey  = "bean.name"
)

// Cluster dispatch configuration keys.
const (
	ClusterKey              = "cluster"
	LoadbalanceKey           = "loadbalance"
	RetriesKey               = "retries"
	ForksKey                 = "forks"
	TimeoutKey               = "timeout"
	StickyKey                = "sticky"
	ClusterAvailableCheckKey = "cluster.availablecheck"
	ForceKey                 = "force"
	PriorityKey              = "priority"
	RuntimeKey               = "runtime"
	RouterKey                = "router"
	WarmupKey                = "warmup"

	DefaultCluster              = "failover"
	DefaultLoadbalance          = "random"
	DefaultRetries              = "2"
	DefaultForks                = "2"
	DefaultTimeout              = "1000"
	DefaultClusterAvailableCheck = true
	DefaultForce                = false
	DefaultPriority              = int64(0)
	DefaultRuntime               = false
	DefaultWeight                = int64(100)
	DefaultWarmup                = int64(10 * 60 * 1000) // 10 minutes, in ms

	// RecyclePeriod is how long an idle weighted-round-robin node survives
	// before it is dropped. The consistent-hash ring cache does not use it;
	// that cache is bounded by size instead.
	RecyclePeriod = int64(60 * 1000)
)

// Cluster strategy names, resolved through the ExtensionRegistry.
const (
	ClusterKeyFailover  = "failover"
	ClusterKeyFailfast  = "failfast"
	ClusterKeyFailsafe  = "failsafe"
	ClusterKeyFailback  = "failback"
	ClusterKeyForking   = "forking"
	ClusterKeyBroadcast = "broadcast"
)

// LoadBalance strategy names.
const (
	LoadBalanceKeyRandom         = "random"
	LoadBalanceKeyRoundRobin     = "roundrobin"
	LoadBalanceKeyLeastActive    = "leastactive"
	LoadBalanceKeyConsistentHash = "consistenthash"
)

// Router rule keys.
const (
	MethodKey    = "method"
	MethodsKey   = "methods"
	DefaultPrefix = "default."
	HashNodesKey = "hash.nodes"
	DefaultHashNodes = 160
)

// Registry wiring keys (only the notification contract the Directory needs).
const (
	RegistryKey           = "registry"
	RegistryGroupKey       = "registry.group"
	RegistryTimeoutKey     = "registry.timeout"
	RegistryNamespaceKey   = "registry.namespace"
	RegistryRoleKey        = "registry.role"
	RegistryProtocol       = "registry"
	ServiceRegistryProtocol = "service-discovery-registry"
	DefaultRegTimeout      = "10s"

	NacosKey                     = "nacos"
	NacosGroupKey                = "nacosGroup"
	NacosNamespaceID             = "nacosNamespaceId"
	NacosUsername                = "username"
	NacosPassword                = "password"
	ServiceDiscoveryDefaultGroup = "DEFAULT_GROUP"
	DefaultNacosWeight           = 1
	MaxNacosWeight               = int64(10000)
)

// Version is this module's release identifier.
const (
	Version = "3.0.0-rpc-cluster"
)

// ApplicationKey identifies miscellaneous application metadata URL params,
// used when a consumer URL is constructed by the config package.
const (
	ApplicationKey   = "application"
	OrganizationKey  = "organization"
	NameKey          = "name"
	ModuleKey        = "module"
	AppVersionKey    = "app.version"
	OwnerKey         = "owner"
	EnvironmentKey   = "environment"
	ReleaseKey       = "release"
)
