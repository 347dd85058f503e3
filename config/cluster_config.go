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

// Package config turns user-facing cluster-dispatch settings into the
// common.URL the core reads every parameter from, and wires up the
// Directory + Cluster pair that produces the final dispatch Invoker. It
// carries no protocol/proxy/generic-service machinery; it never terminates
// a wire call itself, only assembles the Invoker that will.
package config

import (
	"net/url"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/cluster/directory/static"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// MethodConfig carries per-method overrides of the cluster-wide settings.
// A method that leaves a field empty falls back to the global key.
type MethodConfig struct {
	Name           string `yaml:"name" json:"name,omitempty" property:"name" validate:"required"`
	LoadBalance    string `yaml:"loadbalance" json:"loadbalance,omitempty" property:"loadbalance"`
	Retries        string `yaml:"retries" json:"retries,omitempty" property:"retries"`
	Sticky         bool   `yaml:"sticky" json:"sticky,omitempty" property:"sticky"`
	RequestTimeout string `yaml:"timeout" json:"timeout,omitempty" property:"timeout"`
	Forks          string `yaml:"forks" json:"forks,omitempty" property:"forks"`
}

func (mc *MethodConfig) Init() error {
	return defaults.Set(mc)
}

// ClusterConfig is the configuration of one cluster-dispatched reference:
// which fault-tolerance strategy, load balancer, and retry/timeout
// policy apply, and which endpoints (direct or discovered) back it.
type ClusterConfig struct {
	id string

	InterfaceName string            `yaml:"interface" json:"interface,omitempty" property:"interface" validate:"required"`
	Cluster       string            `yaml:"cluster" json:"cluster,omitempty" property:"cluster" default:"failover"`
	Loadbalance   string            `yaml:"loadbalance" json:"loadbalance,omitempty" property:"loadbalance" default:"random"`
	Retries       string            `yaml:"retries" json:"retries,omitempty" property:"retries" default:"2"`
	Forks         string            `yaml:"forks" json:"forks,omitempty" property:"forks" default:"2"`
	Group         string            `yaml:"group" json:"group,omitempty" property:"group"`
	Version       string            `yaml:"version" json:"version,omitempty" property:"version"`
	Sticky        bool              `yaml:"sticky" json:"sticky,omitempty" property:"sticky"`
	RequestTimeout string           `yaml:"timeout" json:"timeout,omitempty" property:"timeout" default:"1000"`
	Params        map[string]string `yaml:"params" json:"params,omitempty" property:"params"`

	MethodsConfig []*MethodConfig `yaml:"methods" json:"methods,omitempty" property:"methods"`
}

func newEmptyClusterConfig() *ClusterConfig {
	return &ClusterConfig{
		Params:        make(map[string]string, 4),
		MethodsConfig: make([]*MethodConfig, 0, 4),
	}
}

// Init applies struct-tag defaults and validates required fields via
// github.com/creasty/defaults and github.com/go-playground/validator/v10.
func (cc *ClusterConfig) Init() error {
	for _, m := range cc.MethodsConfig {
		if err := m.Init(); err != nil {
			return err
		}
	}
	if err := defaults.Set(cc); err != nil {
		return err
	}
	return validator.New().Struct(cc)
}

// ConfigURL builds the interface-level URL every downstream strategy reads
// its parameters from; it is the only channel configuration flows through
// into the dispatch core.
func (cc *ClusterConfig) ConfigURL() *common.URL {
	return common.NewURLWithOptions(
		common.WithPath(cc.InterfaceName),
		common.WithInterface(cc.InterfaceName),
		common.WithParams(cc.urlMap()),
		common.WithParamsValue(constant.BeanNameKey, cc.id),
	)
}

func (cc *ClusterConfig) urlMap() url.Values {
	m := url.Values{}
	for k, v := range cc.Params {
		m.Set(k, v)
	}

	m.Set(constant.InterfaceKey, cc.InterfaceName)
	m.Set(constant.TimestampKey, strconv.FormatInt(time.Now().Unix(), 10))
	m.Set(constant.ClusterKey, cc.Cluster)
	m.Set(constant.LoadbalanceKey, cc.Loadbalance)
	m.Set(constant.RetriesKey, cc.Retries)
	m.Set(constant.ForksKey, cc.Forks)
	m.Set(constant.GroupKey, cc.Group)
	m.Set(constant.VersionKey, cc.Version)
	m.Set(constant.StickyKey, strconv.FormatBool(cc.Sticky))
	if cc.RequestTimeout != "" {
		m.Set(constant.TimeoutKey, cc.RequestTimeout)
	}

	for _, mc := range cc.MethodsConfig {
		prefix := "methods." + mc.Name + "."
		if mc.LoadBalance != "" {
			m.Set(prefix+constant.LoadbalanceKey, mc.LoadBalance)
		}
		if mc.Retries != "" {
			m.Set(prefix+constant.RetriesKey, mc.Retries)
		}
		m.Set(prefix+constant.StickyKey, strconv.FormatBool(mc.Sticky))
		if mc.RequestTimeout != "" {
			m.Set(prefix+constant.TimeoutKey, mc.RequestTimeout)
		}
		if mc.Forks != "" {
			m.Set(prefix+constant.ForksKey, mc.Forks)
		}
	}
	return m
}

// Refer builds the dispatch Invoker for this configuration over a fixed
// endpoint list: a static Directory bound to cfgURL, joined to whichever
// Cluster strategy cc.Cluster names.
func (cc *ClusterConfig) Refer(invokers []protocol.Invoker) (protocol.Invoker, error) {
	cfgURL := cc.ConfigURL()
	dir := static.NewDirectory(cfgURL, invokers)
	return cc.join(dir)
}

// ReferDirectory is the discovery-backed counterpart of Refer: dir is
// expected to already be subscribed to live membership (e.g. a
// directory.RegistryDirectory), and this just binds the fault-tolerance
// strategy on top of it.
func (cc *ClusterConfig) ReferDirectory(dir cluster.Directory) (protocol.Invoker, error) {
	return cc.join(dir)
}

func (cc *ClusterConfig) join(dir cluster.Directory) (protocol.Invoker, error) {
	name := cc.Cluster
	if name == "" {
		name = constant.DefaultCluster
	}
	c, err := cluster.Clusters.Get(name)
	if err != nil {
		return nil, err
	}
	return c.Join(dir), nil
}

// ClusterConfigBuilder builds a ClusterConfig fluently.
type ClusterConfigBuilder struct {
	config *ClusterConfig
}

func NewClusterConfigBuilder() *ClusterConfigBuilder {
	return &ClusterConfigBuilder{config: newEmptyClusterConfig()}
}

func (b *ClusterConfigBuilder) SetInterface(name string) *ClusterConfigBuilder {
	b.config.InterfaceName = name
	return b
}

func (b *ClusterConfigBuilder) SetCluster(name string) *ClusterConfigBuilder {
	b.config.Cluster = name
	return b
}

func (b *ClusterConfigBuilder) SetLoadbalance(name string) *ClusterConfigBuilder {
	b.config.Loadbalance = name
	return b
}

func (b *ClusterConfigBuilder) SetRetries(retries string) *ClusterConfigBuilder {
	b.config.Retries = retries
	return b
}

func (b *ClusterConfigBuilder) SetForks(forks string) *ClusterConfigBuilder {
	b.config.Forks = forks
	return b
}

func (b *ClusterConfigBuilder) SetGroup(group string) *ClusterConfigBuilder {
	b.config.Group = group
	return b
}

func (b *ClusterConfigBuilder) SetVersion(version string) *ClusterConfigBuilder {
	b.config.Version = version
	return b
}

func (b *ClusterConfigBuilder) SetSticky(sticky bool) *ClusterConfigBuilder {
	b.config.Sticky = sticky
	return b
}

func (b *ClusterConfigBuilder) SetRequestTimeout(timeout string) *ClusterConfigBuilder {
	b.config.RequestTimeout = timeout
	return b
}

func (b *ClusterConfigBuilder) SetParams(params map[string]string) *ClusterConfigBuilder {
	b.config.Params = params
	return b
}

func (b *ClusterConfigBuilder) AddMethodConfig(mc *MethodConfig) *ClusterConfigBuilder {
	b.config.MethodsConfig = append(b.config.MethodsConfig, mc)
	return b
}

func (b *ClusterConfigBuilder) Build() *ClusterConfig {
	return b.config
}
