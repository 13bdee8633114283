package earthengine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeConstant(t *testing.T) {
	data, err := json.Marshal(Encode(Value(3).node))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"0","values":{"0":{"constantValue":3}}}`, string(data))

	data, err = json.Marshal(Null().node)
	require.NoError(t, err)
	assert.JSONEq(t, `{"constantValue":null}`, string(data))
}

func TestEncodeInvocation(t *testing.T) {
	size := LoadImageCollection("LANDSAT/LT05/C02/T1_L2").Size()
	data, err := json.Marshal(size.node)
	require.NoError(t, err)
	assert.JSONEq(t, `{
	  "functionInvocationValue": {
	    "functionName": "Collection.size",
	    "arguments": {
	      "collection": {
	        "functionInvocationValue": {
	          "functionName": "ImageCollection.load",
	          "arguments": {"id": {"constantValue": "LANDSAT/LT05/C02/T1_L2"}}
	        }
	      }
	    }
	  }
	}`, string(data))
}

func TestEncodeArrayAndDictionary(t *testing.T) {
	data, err := json.Marshal(Strings("a", "b"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"arrayValue":{"values":[{"constantValue":"a"},{"constantValue":"b"}]}}`, string(data))

	data, err = json.Marshal(Array())
	require.NoError(t, err)
	assert.JSONEq(t, `{"arrayValue":{"values":[]}}`, string(data))

	data, err = json.Marshal(&ValueNode{Dictionary: map[string]*ValueNode{"k": Constant(true)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dictionaryValue":{"values":{"k":{"constantValue":true}}}}`, string(data))
}

func TestInvokeDropsNilArguments(t *testing.T) {
	n := Invoke("f", map[string]*ValueNode{"a": Constant(1), "b": nil})
	assert.Equal(t, "f(a=1)", Describe(n))
}

func TestNestedLambdasDoNotShadow(t *testing.T) {
	outer := LoadImageCollection("outer").Map(func(img Image) Image {
		return LoadImageCollection("inner").Map(func(i Image) Image { return i.Add(img) }).First()
	})

	def := outer.node.Invocation.Arguments["baseAlgorithm"].FunctionDefinition
	require.NotNil(t, def)
	assert.Equal(t, []string{"_MAPPING_VAR_1"}, def.ArgumentNames)

	inner := def.Body.Invocation.Arguments["collection"].Invocation.Arguments["baseAlgorithm"].FunctionDefinition
	require.NotNil(t, inner)
	assert.Equal(t, []string{"_MAPPING_VAR_0"}, inner.ArgumentNames)
	assert.Contains(t, Describe(inner.Body), "$_MAPPING_VAR_1")
}

func TestIdenticalGraphsEncodeIdentically(t *testing.T) {
	build := func() ImageCollection {
		return LoadImageCollection("c").
			FilterDate(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)).
			Select("NDVI")
	}
	a, err := json.Marshal(build().node)
	require.NoError(t, err)
	b, err := json.Marshal(build().node)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
