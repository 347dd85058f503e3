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

package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type plainGreeter struct{ msg string }

func (g plainGreeter) Greet() string { return g.msg }

type upperWrapper struct{}

func (upperWrapper) Wrap(next greeter) greeter {
	return wrappedGreeter{next}
}

type wrappedGreeter struct{ next greeter }

func (w wrappedGreeter) Greet() string { return "WRAPPED:" + w.next.Greet() }

func TestRegistry_GetReturnsRegistered(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.Register("hello", plainGreeter{msg: "hello"})

	got, err := r.Get("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Greet())
}

func TestRegistry_GetUnknownNameIsNoSuchExtension(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.Register("hello", plainGreeter{msg: "hello"})

	_, err := r.Get("missing")
	require.Error(t, err)
	var nse *NoSuchExtensionError
	require.ErrorAs(t, err, &nse)
	assert.Equal(t, "greeter", nse.Interface)
	assert.Equal(t, "missing", nse.Name)
	assert.Contains(t, nse.Loaded, "hello")
}

func TestRegistry_DuplicateNameIsDeferredError(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.Register("hello", plainGreeter{msg: "first"})
	r.Register("hello", plainGreeter{msg: "second"})

	got, err := r.Get("hello")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Greet(), "first registration wins")

	errs := r.LoadErrors()
	require.Len(t, errs, 1)
	var dup *DuplicateNameError
	require.ErrorAs(t, errs[0], &dup)
}

func TestRegistry_DefaultFallback(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.Register("hello", plainGreeter{msg: "hello"})
	r.RegisterDefault("bye", plainGreeter{msg: "bye"})

	got, err := r.GetDefault()
	require.NoError(t, err)
	assert.Equal(t, "bye", got.Greet())
}

func TestRegistry_NoDefaultIsAnError(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.Register("hello", plainGreeter{msg: "hello"})

	_, err := r.GetDefault()
	assert.Error(t, err)
}

func TestRegistry_WrapperDecoratesResolvedValue(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.Register("hello", plainGreeter{msg: "hello"})
	r.RegisterWrapper("upper", 0, upperWrapper{})

	got, err := r.Get("hello")
	require.NoError(t, err)
	assert.Equal(t, "WRAPPED:hello", got.Greet())
}

func TestRegistry_AdaptiveResolvesPerCall(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.Register("a", plainGreeter{msg: "a"})
	r.Register("b", plainGreeter{msg: "b"})
	r.SetAdaptive("true", func(url interface{ GetParam(key, d string) string }) greeter {
		name := url.GetParam("greeter", "a")
		g, _ := r.Get(name)
		return g
	})

	got, err := r.GetAdaptive(fakeURL{"greeter": "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", got.Greet())
}

func TestRegistry_MultipleAdaptiveIsDeferredError(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	noop := func(_ interface{ GetParam(key, d string) string }) greeter { return plainGreeter{} }
	r.SetAdaptive("one", noop)
	r.SetAdaptive("two", noop)

	errs := r.LoadErrors()
	require.Len(t, errs, 1)
	var multi *MultipleAdaptiveError
	require.ErrorAs(t, errs[0], &multi)
}

func TestRegistry_CyclicDefaultIsDeferredError(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.RegisterDefault("x", plainGreeter{msg: "x"})
	r.SetAdaptive("x", func(_ interface{ GetParam(key, d string) string }) greeter { return plainGreeter{} })

	errs := r.LoadErrors()
	require.Len(t, errs, 1)
	var cyc *CyclicDefaultError
	require.ErrorAs(t, errs[0], &cyc)
}

func TestRegistry_GetActiveIsDeterministicallyOrdered(t *testing.T) {
	r := NewRegistry[greeter]("greeter")
	r.Register("zebra", plainGreeter{msg: "zebra"})
	r.Register("apple", plainGreeter{msg: "apple"})
	r.Register("mango", plainGreeter{msg: "mango"})

	all := r.GetActive()
	require.Len(t, all, 3)
	assert.Equal(t, "apple", all[0].Greet())
	assert.Equal(t, "mango", all[1].Greet())
	assert.Equal(t, "zebra", all[2].Greet())
}

type fakeURL map[string]string

func (f fakeURL) GetParam(key, d string) string {
	if v, ok := f[key]; ok {
		return v
	}
	return d
}
