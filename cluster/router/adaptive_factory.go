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

package router

import (
	"github.com/dubbo-cluster/rpc-cluster/cluster"
	"github.com/dubbo-cluster/rpc-cluster/common"
)

// adaptiveFactory resolves the router kind from the rule URL's own
// protocol field (e.g. "condition://") rather than a separate param.
type adaptiveFactory struct{}

func (adaptiveFactory) NewRouter(url *common.URL) (cluster.Router, error) {
	f, err := cluster.RouterFactories.Get(url.Protocol)
	if err != nil {
		return nil, err
	}
	return f.NewRouter(url)
}

func init() {
	cluster.RouterFactories.SetAdaptive("true", func(_ interface{ GetParam(key, d string) string }) cluster.RouterFactory {
		return adaptiveFactory{}
	})
}
