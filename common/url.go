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

package common

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	cm "github.com/Workiva/go-datastructures/common"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	perrors "github.com/pkg/errors"

	"github.com/dubbo-cluster/rpc-cluster/common/constant"
)

// role constants describing which side of a call a URL represents.
const (
	CONSUMER = iota
	ROUTER
	PROVIDER
	PROTOCOL = "protocol"
)

var (
	roleNames           = [...]string{"consumer", "routers", "provider"}
	compareURLEqualFunc CompareURLEqualFunc
)

func init() {
	compareURLEqualFunc = defaultCompareURLEqual
}

// RoleType names one side of a call.
type RoleType int

// Role returns the human-readable role name.
func (t RoleType) Role() string {
	return roleNames[t]
}

// noCopy may be embedded into structs which must not be copied after first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// URL is the immutable-after-construction request fingerprint every
// strategy reads its behavior from, addressed both globally (GetParam) and
// per-method (GetMethodParam, which falls back to the global key).
type URL struct {
	noCopy noCopy

	Protocol string
	Location string // ip:port
	Ip       string
	Port     string

	PrimitiveURL string

	paramsLock sync.RWMutex
	params     url.Values

	Path     string
	Username string
	Password string
	Methods  []string

	attributesLock sync.RWMutex
	attributes     map[string]any

	// SubURL carries the consumer-side interface URL when this URL describes
	// a registry address.
	SubURL *URL
}

// Option mutates a URL under construction.
type Option func(*URL)

func WithUsername(username string) Option {
	return func(u *URL) { u.Username = username }
}

func WithPassword(pwd string) Option {
	return func(u *URL) { u.Password = pwd }
}

func WithMethods(methods []string) Option {
	return func(u *URL) { u.Methods = methods }
}

func WithParams(params url.Values) Option {
	return func(u *URL) { u.SetParams(params) }
}

func WithParamsValue(key, val string) Option {
	return func(u *URL) { u.SetParam(key, val) }
}

func WithProtocol(proto string) Option {
	return func(u *URL) { u.Protocol = proto }
}

func WithIp(ip string) Option {
	return func(u *URL) { u.Ip = ip }
}

func WithPort(port string) Option {
	return func(u *URL) { u.Port = port }
}

func WithPath(path string) Option {
	return func(u *URL) { u.Path = "/" + strings.TrimPrefix(path, "/") }
}

func WithInterface(v string) Option {
	return func(u *URL) { u.SetParam(constant.InterfaceKey, v) }
}

func WithLocation(location string) Option {
	return func(u *URL) { u.Location = location }
}

// WithToken sets a request token, generating a uuid when the caller passes
// "true" or "default" instead of an explicit value.
func WithToken(token string) Option {
	return func(u *URL) {
		if len(token) == 0 {
			return
		}
		value := token
		if strings.EqualFold(token, "true") || strings.EqualFold(token, "default") {
			id, _ := uuid.NewUUID()
			value = id.String()
		}
		u.SetParam(constant.TokenKey, value)
	}
}

func WithAttribute(key string, attribute any) Option {
	return func(u *URL) {
		if u.attributes == nil {
			u.attributes = make(map[string]any)
		}
		u.attributes[key] = attribute
	}
}

func WithWeight(weight int64) Option {
	return func(u *URL) {
		if weight > 0 {
			u.SetParam(constant.WeightKey, strconv.FormatInt(weight, 10))
		}
	}
}

// NewURLWithOptions builds a URL purely from Options, without parsing a string.
func NewURLWithOptions(opts ...Option) *URL {
	newURL := &URL{}
	for _, opt := range opts {
		opt(newURL)
	}
	newURL.Location = newURL.Ip + ":" + newURL.Port
	return newURL
}

// NewURL parses urlString (protocol://[user:pass@]host:port/path?params) into
// a URL, applying opts afterwards so callers can override parsed fields.
func NewURL(urlString string, opts ...Option) (*URL, error) {
	s := URL{}
	if urlString == "" {
		return &s, nil
	}

	rawURLString, err := url.QueryUnescape(urlString)
	if err != nil {
		return &s, perrors.Errorf("url.QueryUnescape(%s), error{%v}", urlString, err)
	}

	if !strings.Contains(rawURLString, "//") {
		t := URL{}
		for _, opt := range opts {
			opt(&t)
		}
		rawURLString = t.Protocol + "://" + rawURLString
	}

	serviceURL, err := url.Parse(rawURLString)
	if err != nil {
		return &s, perrors.Errorf("url.Parse(%s), error{%v}", rawURLString, err)
	}

	s.params, err = url.ParseQuery(serviceURL.RawQuery)
	if err != nil {
		return &s, perrors.Errorf("url.ParseQuery(%s), error{%v}", serviceURL.RawQuery, err)
	}

	s.PrimitiveURL = urlString
	s.Protocol = serviceURL.Scheme
	s.Username = serviceURL.User.Username()
	s.Password, _ = serviceURL.User.Password()
	s.Location = serviceURL.Host
	s.Path = serviceURL.Path
	for _, location := range strings.Split(s.Location, ",") {
		location = strings.TrimSpace(location)
		if strings.Contains(location, ":") {
			s.Ip, s.Port, err = net.SplitHostPort(location)
			if err != nil {
				return &s, perrors.Errorf("net.SplitHostPort(%s), error{%v}", s.Location, err)
			}
			break
		}
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &s, nil
}

// Group returns the group parameter, "" meaning unset.
func (c *URL) Group() string { return c.GetParam(constant.GroupKey, "") }

// Interface returns the interface name this URL addresses.
func (c *URL) Interface() string { return c.GetParam(constant.InterfaceKey, "") }

// Version returns the version parameter, "" meaning unset.
func (c *URL) Version() string { return c.GetParam(constant.VersionKey, "") }

// Address returns "ip:port", or just "ip" when no port is set.
func (c *URL) Address() string {
	if c.Port == "" {
		return c.Ip
	}
	return c.Ip + ":" + c.Port
}

// Identity is the stable key used to track per-endpoint state (sticky cache,
// weighted round-robin nodes): host:port plus a hash of the full URL string.
func (c *URL) Identity() string {
	return fmt.Sprintf("%s#%d", c.Address(), c.identityHash())
}

func (c *URL) identityHash() uint32 {
	h := uint32(2166136261)
	for _, b := range []byte(c.String()) {
		h ^= uint32(b)
		h *= 16777619
	}
	return h
}

func (c *URL) String() string {
	c.paramsLock.RLock()
	defer c.paramsLock.RUnlock()
	var buf strings.Builder
	if len(c.Username) == 0 && len(c.Password) == 0 {
		fmt.Fprintf(&buf, "%s://%s:%s%s?", c.Protocol, c.Ip, c.Port, c.Path)
	} else {
		fmt.Fprintf(&buf, "%s://%s:%s@%s:%s%s?", c.Protocol, c.Username, c.Password, c.Ip, c.Port, c.Path)
	}
	buf.WriteString(c.params.Encode())
	return buf.String()
}

// Key returns the coarse identifier used for URL equality and map lookups.
func (c *URL) Key() string {
	return fmt.Sprintf("%s://%s:%s@%s:%s/?interface=%s&group=%s&version=%s",
		c.Protocol, c.Username, c.Password, c.Ip, c.Port, c.Service(), c.GetParam(constant.GroupKey, ""), c.GetParam(constant.VersionKey, ""))
}

// ServiceKey returns the unique key of the service this URL addresses.
func (c *URL) ServiceKey() string {
	return ServiceKey(c.GetParam(constant.InterfaceKey, strings.TrimPrefix(c.Path, constant.PathSeparator)),
		c.GetParam(constant.GroupKey, ""), c.GetParam(constant.VersionKey, ""))
}

// ServiceKey composes the canonical "group/interface:version" service key.
func ServiceKey(intf, group, version string) string {
	if intf == "" {
		return ""
	}
	buf := &bytes.Buffer{}
	if group != "" {
		buf.WriteString(group)
		buf.WriteString("/")
	}
	buf.WriteString(intf)
	if version != "" && version != "0.0.0" {
		buf.WriteString(":")
		buf.WriteString(version)
	}
	return buf.String()
}

// Service returns the interface name, falling back to the sub-URL's when this
// URL is a registry address with no path of its own.
func (c *URL) Service() string {
	service := c.GetParam(constant.InterfaceKey, strings.TrimPrefix(c.Path, "/"))
	if service != "" {
		return service
	}
	if c.SubURL != nil {
		return c.SubURL.GetParam(constant.InterfaceKey, strings.TrimPrefix(c.SubURL.Path, "/"))
	}
	return ""
}

// AddParam appends value to key, keeping any existing values.
func (c *URL) AddParam(key, value string) {
	c.paramsLock.Lock()
	defer c.paramsLock.Unlock()
	if c.params == nil {
		c.params = url.Values{}
	}
	c.params.Add(key, value)
}

// SetParam overwrites key with value. Only meant to be used while building a URL.
func (c *URL) SetParam(key, value string) {
	c.paramsLock.Lock()
	defer c.paramsLock.Unlock()
	if c.params == nil {
		c.params = url.Values{}
	}
	c.params.Set(key, value)
}

func (c *URL) SetAttribute(key string, value any) {
	c.attributesLock.Lock()
	defer c.attributesLock.Unlock()
	if c.attributes == nil {
		c.attributes = make(map[string]any)
	}
	c.attributes[key] = value
}

func (c *URL) GetAttribute(key string) (any, bool) {
	c.attributesLock.RLock()
	defer c.attributesLock.RUnlock()
	v, ok := c.attributes[key]
	return v, ok
}

// DelParam removes key entirely.
func (c *URL) DelParam(key string) {
	c.paramsLock.Lock()
	defer c.paramsLock.Unlock()
	if c.params != nil {
		c.params.Del(key)
	}
}

// ReplaceParams swaps the whole parameter set. Only meant to be used while
// building or cloning a URL.
func (c *URL) ReplaceParams(params url.Values) {
	c.paramsLock.Lock()
	defer c.paramsLock.Unlock()
	c.params = params
}

// RangeParams iterates params in an unspecified order; f returning false stops
// the iteration early.
func (c *URL) RangeParams(f func(key, value string) bool) {
	c.paramsLock.RLock()
	defer c.paramsLock.RUnlock()
	for k, v := range c.params {
		if len(v) == 0 {
			continue
		}
		if !f(k, v[0]) {
			break
		}
	}
}

// GetParam looks up key in the URL's parameters, returning d if unset.
func (c *URL) GetParam(key, d string) string {
	c.paramsLock.RLock()
	defer c.paramsLock.RUnlock()
	var r string
	if len(c.params) > 0 {
		r = c.params.Get(key)
	}
	if len(r) == 0 {
		r = d
	}
	return r
}

// GetNonDefaultParam returns the raw value and whether it was actually set.
func (c *URL) GetNonDefaultParam(key string) (string, bool) {
	c.paramsLock.RLock()
	defer c.paramsLock.RUnlock()
	var r string
	if len(c.params) > 0 {
		r = c.params.Get(key)
	}
	return r, r != ""
}

// GetParams returns the underlying values; callers must not mutate it.
func (c *URL) GetParams() url.Values { return c.params }

func (c *URL) GetParamBool(key string, d bool) bool {
	r, err := strconv.ParseBool(c.GetParam(key, ""))
	if err != nil {
		return d
	}
	return r
}

func (c *URL) GetParamInt(key string, d int64) int64 {
	r, err := strconv.ParseInt(c.GetParam(key, ""), 10, 64)
	if err != nil {
		return d
	}
	return r
}

func (c *URL) GetParamInt32(key string, d int32) int32 {
	return int32(c.GetParamInt(key, int64(d)))
}

// GetMethodParam looks up a per-method override ("methods.<method>.<key>"),
// falling back to the global key when the method-scoped key is unset.
func (c *URL) GetMethodParam(method, key, d string) string {
	r := c.GetParam("methods."+method+"."+key, "")
	if r == "" {
		return c.GetParam(key, d)
	}
	return r
}

func (c *URL) GetMethodParamBool(method, key string, d bool) bool {
	r, ok := c.GetNonDefaultParam("methods." + method + "." + key)
	if !ok {
		return c.GetParamBool(key, d)
	}
	b, err := strconv.ParseBool(r)
	if err != nil {
		return d
	}
	return b
}

func (c *URL) GetMethodParamInt(method, key string, d int64) int64 {
	r, ok := c.GetNonDefaultParam("methods." + method + "." + key)
	if !ok {
		return c.GetParamInt(key, d)
	}
	v, err := strconv.ParseInt(r, 10, 64)
	if err != nil {
		return d
	}
	return v
}

// SetParams merges m into the URL's params, overwriting existing keys.
// Not safe to call concurrently with readers; only used while building a URL.
func (c *URL) SetParams(m url.Values) {
	for k := range m {
		c.SetParam(k, m.Get(k))
	}
}

// ToMap flattens the URL (protocol/host/port/path plus every param) into a map.
func (c *URL) ToMap() map[string]string {
	paramsMap := make(map[string]string)
	c.RangeParams(func(key, value string) bool {
		paramsMap[key] = value
		return true
	})
	if c.Protocol != "" {
		paramsMap[PROTOCOL] = c.Protocol
	}
	if c.Username != "" {
		paramsMap["username"] = c.Username
	}
	if c.Password != "" {
		paramsMap["password"] = c.Password
	}
	if c.Ip != "" {
		paramsMap["host"] = c.Ip
	}
	if c.Port != "" {
		paramsMap["port"] = c.Port
	}
	if c.Path != "" {
		paramsMap["path"] = c.Path
	}
	if len(paramsMap) == 0 {
		return nil
	}
	return paramsMap
}

// MergeURL merges anotherUrl's params into a clone of c: c's values win on
// conflict, except for cluster/loadbalance/retries/timeout which anotherUrl
// may override per method.
func (c *URL) MergeURL(anotherUrl *URL) *URL {
	mergedURL := c.Clone()
	params := mergedURL.GetParams()
	for key, value := range anotherUrl.GetParams() {
		if _, ok := mergedURL.GetNonDefaultParam(key); !ok && len(value) > 0 {
			params[key] = append([]string(nil), value...)
		}
	}

	mergedURL.Methods = append([]string(nil), anotherUrl.Methods...)
	for _, method := range anotherUrl.Methods {
		for _, paramKey := range []string{constant.LoadbalanceKey, constant.ClusterKey, constant.RetriesKey, constant.TimeoutKey} {
			if v := anotherUrl.GetParam(paramKey, ""); v != "" {
				params[paramKey] = []string{v}
			}
			methodsKey := "methods." + method + "." + paramKey
			if v := anotherUrl.GetParam(methodsKey, ""); v != "" {
				params[methodsKey] = []string{v}
			}
		}
	}

	if mergedURL.attributes == nil {
		mergedURL.attributes = make(map[string]any, len(anotherUrl.attributes))
	}
	for k, v := range anotherUrl.attributes {
		if _, ok := mergedURL.GetAttribute(k); !ok {
			mergedURL.attributes[k] = v
		}
	}
	mergedURL.ReplaceParams(params)
	return mergedURL
}

// Clone deep-copies the URL, including its params and attributes.
func (c *URL) Clone() *URL {
	newURL := &URL{}
	if err := copier.Copy(newURL, c); err != nil {
		return newURL
	}
	newURL.params = url.Values{}
	c.RangeParams(func(key, value string) bool {
		newURL.SetParam(key, value)
		return true
	})
	c.RangeAttributes(func(key string, value any) bool {
		newURL.SetAttribute(key, value)
		return true
	})
	return newURL
}

func (c *URL) RangeAttributes(f func(key string, value any) bool) {
	c.attributesLock.RLock()
	defer c.attributesLock.RUnlock()
	for k, v := range c.attributes {
		if !f(k, v) {
			break
		}
	}
}

// CloneExceptParams clones c, dropping every param whose key is in exclude.
func (c *URL) CloneExceptParams(exclude map[string]struct{}) *URL {
	newURL := &URL{}
	if err := copier.Copy(newURL, c); err != nil {
		return newURL
	}
	newURL.params = url.Values{}
	c.RangeParams(func(key, value string) bool {
		if _, skip := exclude[key]; !skip {
			newURL.SetParam(key, value)
		}
		return true
	})
	return newURL
}

// Compare implements go-datastructures/common.Comparator so URLs can be used
// in the library's ordered containers, ordering by the String() form.
func (c *URL) Compare(comp cm.Comparator) int {
	a := c.String()
	b := comp.(*URL).String()
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// IsEquals compares two URLs' host/port and flattened param maps, ignoring
// any keys named in excludes.
func IsEquals(left, right *URL, excludes ...string) bool {
	if (left == nil) != (right == nil) {
		return false
	}
	if left == nil {
		return true
	}
	if left.Ip != right.Ip || left.Port != right.Port {
		return false
	}
	leftMap := left.ToMap()
	rightMap := right.ToMap()
	for _, exclude := range excludes {
		delete(leftMap, exclude)
		delete(rightMap, exclude)
	}
	if len(leftMap) != len(rightMap) {
		return false
	}
	for k, lv := range leftMap {
		if rv, ok := rightMap[k]; !ok || rv != lv {
			return false
		}
	}
	return true
}

// URLSlice sorts URLs by their String() form, the same order
// router.SortByPriority uses to break ties between equal priorities.
type URLSlice []*URL

func (s URLSlice) Len() int           { return len(s) }
func (s URLSlice) Less(i, j int) bool { return s[i].String() < s[j].String() }
func (s URLSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// CompareURLEqualFunc allows swapping the default URL-equality strategy.
type CompareURLEqualFunc func(l, r *URL, excludeParam ...string) bool

func defaultCompareURLEqual(l, r *URL, excludeParam ...string) bool {
	return IsEquals(l, r, excludeParam...)
}

func SetCompareURLEqualFunc(f CompareURLEqualFunc) { compareURLEqualFunc = f }
func GetCompareURLEqualFunc() CompareURLEqualFunc  { return compareURLEqualFunc }

// GetParamDuration parses a duration-valued param, using d when the key is
// unset, and 3s when the value (or d) does not parse.
func (c *URL) GetParamDuration(key, d string) time.Duration {
	if t, err := time.ParseDuration(c.GetParam(key, d)); err == nil {
		return t
	}
	return 3 * time.Second
}
