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

package condition

import (
	"strings"

	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
	"github.com/dubbo-cluster/rpc-cluster/common/constant"
	"github.com/dubbo-cluster/rpc-cluster/protocol"
)

// Router is one compiled (whenExpr => thenExpr) rule. An empty when side
// matches every consumer; an empty then side blacklists the consumer
// outright.
type Router struct {
	url      *common.URL
	priority int64
	force    bool
	runtime  bool

	whenOrder []string
	when      map[string]*MatchPair
	thenOrder []string
	then      map[string]*MatchPair
}

// NewRouter compiles a condition rule from a rule URL. The rule text is
// carried in the URL's "rule" parameter as "whenExpr => thenExpr"; force,
// priority, and runtime come from the matching URL parameters.
func NewRouter(url *common.URL) (*Router, error) {
	rule := url.GetParam("rule", "")
	whenExpr, thenExpr := splitRule(rule)

	whenOrder, when := parseClauses(whenExpr)
	thenOrder, then := parseClauses(thenExpr)

	return &Router{
		url:       url,
		priority:  url.GetParamInt(constant.PriorityKey, constant.DefaultPriority),
		force:     url.GetParamBool(constant.ForceKey, constant.DefaultForce),
		runtime:   url.GetParamBool(constant.RuntimeKey, constant.DefaultRuntime),
		whenOrder: whenOrder,
		when:      when,
		thenOrder: thenOrder,
		then:      then,
	}, nil
}

func splitRule(rule string) (when, then string) {
	parts := strings.SplitN(rule, "=>", 2)
	if len(parts) == 1 {
		return "", strings.TrimSpace(parts[0])
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

func (r *Router) Priority() int64  { return r.priority }
func (r *Router) URL() *common.URL { return r.url }
func (r *Router) IsRuntime() bool  { return r.runtime }

// Route evaluates when against consumerURL: on a mismatch it returns
// invokers unchanged. Otherwise it filters
// by then against each endpoint URL; an empty result is returned only
// when force is set, else the unfiltered input is returned.
func (r *Router) Route(invokers []protocol.Invoker, consumerURL *common.URL, invocation protocol.Invocation) ([]protocol.Invoker, error) {
	if len(r.when) == 0 {
		// empty when: matches every consumer, fall through to then.
	} else if !matchClauses(r.whenOrder, r.when, consumerURL, nil, consumerURL) {
		return invokers, nil
	}

	if len(r.then) == 0 {
		// empty then: blacklist the consumer outright.
		if r.force {
			return nil, nil
		}
		return invokers, nil
	}

	out := make([]protocol.Invoker, 0, len(invokers))
	for _, inv := range invokers {
		if matchClauses(r.thenOrder, r.then, inv.GetURL(), invocation, consumerURL) {
			out = append(out, inv)
		}
	}
	if len(out) == 0 && !r.force {
		return invokers, nil
	}
	return out, nil
}

// matchClauses evaluates every (key, MatchPair) entry against target,
// substituting $protocol-style variables from refURL before glob
// matching, and special-casing method/methods against invocation.
func matchClauses(order []string, pairs map[string]*MatchPair, target *common.URL, invocation protocol.Invocation, refURL *common.URL) bool {
	for _, key := range order {
		pair := pairs[key]
		v, present := lookupValue(key, target, invocation)
		substituted := substituteVars(pair, refURL)
		if !substituted.Satisfied(v, present) {
			return false
		}
	}
	return true
}

// lookupValue resolves a clause key's value against target: method/methods
// compare against the call's method name when an invocation is present;
// "host"/"address" and the other URL-identity keys read straight off the
// URL's fields (the same fields url.ToMap() flattens params with);
// everything else falls back from url.param(key) to
// url.param("default."+key).
func lookupValue(key string, target *common.URL, invocation protocol.Invocation) (string, bool) {
	if invocation != nil && (key == constant.MethodKey || key == constant.MethodsKey) {
		return invocation.MethodName(), true
	}
	if v, ok := urlFieldValue(key, target); ok {
		return v, true
	}
	if v, ok := target.GetAttribute(key); ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	if v := target.GetParam(key, ""); v != "" {
		return v, true
	}
	if v := target.GetParam(constant.DefaultPrefix+key, ""); v != "" {
		return v, true
	}
	return "", false
}

// urlFieldValue resolves the URL-identity keys that live on URL fields
// rather than in params (mirrors url.ToMap()'s flattening): "host" and
// "address" both read the IP, "port" the port, "protocol" the scheme.
func urlFieldValue(key string, target *common.URL) (string, bool) {
	switch key {
	case "host", "address":
		if target.Ip != "" {
			return target.Ip, true
		}
	case "port":
		if target.Port != "" {
			return target.Port, true
		}
	case "protocol":
		if target.Protocol != "" {
			return target.Protocol, true
		}
	case "path":
		if target.Path != "" {
			return target.Path, true
		}
	case "username":
		if target.Username != "" {
			return target.Username, true
		}
	}
	return "", false
}

// substituteVars returns a copy of pair with any "$protocol" token
// replaced by refURL's actual protocol. Tokens that don't start with "$"
// pass through unchanged.
func substituteVars(pair *MatchPair, refURL *common.URL) *MatchPair {
	if pair == nil {
		return newMatchPair()
	}
	out := &MatchPair{Matches: substituteSet(pair.Matches, refURL), Mismatches: substituteSet(pair.Mismatches, refURL)}
	return out
}

func substituteSet(set map[string]struct{}, refURL *common.URL) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for token := range set {
		out[substituteToken(token, refURL)] = struct{}{}
	}
	return out
}

func substituteToken(token string, refURL *common.URL) string {
	if token == "$protocol" && refURL != nil {
		return refURL.Protocol
	}
	return token
}

var _ cluster.Router = (*Router)(nil)
