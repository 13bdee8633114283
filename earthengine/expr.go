// Package earthengine is a small client binding for the Earth Engine REST API.
//
// Objects such as Image and ImageCollection are lazy: every method returns a new
// reference describing a server-side computation and performs no I/O. Work only
// happens when an Evaluator materializes a value (Compute), renders a map (GetMap)
// or fetches a tile.
package earthengine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ValueNode is one node of an expression graph, mirroring the REST ValueNode.
// Exactly one of the fields is meaningful; Kind reports which.
type ValueNode struct {
	Constant           any
	IsConstant         bool
	Array              []*ValueNode
	Dictionary         map[string]*ValueNode
	FunctionDefinition *FunctionDefinition
	Invocation         *FunctionInvocation
	ArgumentReference  string
}

// FunctionInvocation calls a server-side algorithm with named arguments.
type FunctionInvocation struct {
	FunctionName string
	Arguments    map[string]*ValueNode
}

// FunctionDefinition is a server-side lambda, used by Collection.map and List.map.
type FunctionDefinition struct {
	ArgumentNames []string
	Body          *ValueNode
}

// NodeKind identifies the populated field of a ValueNode.
type NodeKind int

const (
	KindConstant NodeKind = iota
	KindArray
	KindDictionary
	KindFunctionDefinition
	KindInvocation
	KindArgumentReference
)

func (n *ValueNode) Kind() NodeKind {
	switch {
	case n.IsConstant:
		return KindConstant
	case n.Invocation != nil:
		return KindInvocation
	case n.FunctionDefinition != nil:
		return KindFunctionDefinition
	case n.ArgumentReference != "":
		return KindArgumentReference
	case n.Dictionary != nil:
		return KindDictionary
	default:
		return KindArray
	}
}

// MarshalJSON writes the REST representation. Constants are always written,
// including null, so they cannot use omitempty.
func (n *ValueNode) MarshalJSON() ([]byte, error) {
	switch n.Kind() {
	case KindConstant:
		return json.Marshal(struct {
			ConstantValue any `json:"constantValue"`
		}{n.Constant})
	case KindInvocation:
		return json.Marshal(struct {
			FunctionInvocationValue functionInvocationJSON `json:"functionInvocationValue"`
		}{functionInvocationJSON{n.Invocation.FunctionName, n.Invocation.Arguments}})
	case KindFunctionDefinition:
		return json.Marshal(struct {
			FunctionDefinitionValue functionDefinitionJSON `json:"functionDefinitionValue"`
		}{functionDefinitionJSON{n.FunctionDefinition.ArgumentNames, n.FunctionDefinition.Body}})
	case KindArgumentReference:
		return json.Marshal(struct {
			ArgumentReference string `json:"argumentReference"`
		}{n.ArgumentReference})
	case KindDictionary:
		return json.Marshal(struct {
			DictionaryValue struct {
				Values map[string]*ValueNode `json:"values"`
			} `json:"dictionaryValue"`
		}{struct {
			Values map[string]*ValueNode `json:"values"`
		}{n.Dictionary}})
	default:
		values := n.Array
		if values == nil {
			values = []*ValueNode{}
		}
		return json.Marshal(struct {
			ArrayValue struct {
				Values []*ValueNode `json:"values"`
			} `json:"arrayValue"`
		}{struct {
			Values []*ValueNode `json:"values"`
		}{values}})
	}
}

type functionInvocationJSON struct {
	FunctionName string                `json:"functionName"`
	Arguments    map[string]*ValueNode `json:"arguments"`
}

type functionDefinitionJSON struct {
	ArgumentNames []string   `json:"argumentNames"`
	Body          *ValueNode `json:"body"`
}

// Expression is the request envelope for value:compute and maps.create.
type Expression struct {
	Result string                `json:"result"`
	Values map[string]*ValueNode `json:"values"`
}

// Encode wraps a node tree into an Expression with a single root value.
func Encode(root *ValueNode) Expression {
	return Expression{Result: "0", Values: map[string]*ValueNode{"0": root}}
}

// Constant returns a constant node. Only JSON-representable values are valid.
func Constant(v any) *ValueNode {
	return &ValueNode{Constant: v, IsConstant: true}
}

// Invoke returns a node calling fn with args. Nil arguments are dropped.
func Invoke(fn string, args map[string]*ValueNode) *ValueNode {
	clean := make(map[string]*ValueNode, len(args))
	for k, v := range args {
		if v != nil {
			clean[k] = v
		}
	}
	return &ValueNode{Invocation: &FunctionInvocation{FunctionName: fn, Arguments: clean}}
}

// Array returns an array node.
func Array(values ...*ValueNode) *ValueNode {
	if values == nil {
		values = []*ValueNode{}
	}
	return &ValueNode{Array: values}
}

// Strings returns an array node of string constants.
func Strings(values ...string) *ValueNode {
	nodes := make([]*ValueNode, len(values))
	for i, v := range values {
		nodes[i] = Constant(v)
	}
	return Array(nodes...)
}

func argument(name string) *ValueNode {
	return &ValueNode{ArgumentReference: name}
}

// lambda builds a one-argument function definition. The argument is named after
// the nesting depth of the definitions inside the body, so nested maps never
// shadow each other and identical bodies encode identically.
func lambda(body func(arg *ValueNode) *ValueNode) *ValueNode {
	arg := argument("_pending")
	b := body(arg)
	arg.ArgumentReference = "_MAPPING_VAR_" + strconv.Itoa(definitionDepth(b))
	return &ValueNode{FunctionDefinition: &FunctionDefinition{
		ArgumentNames: []string{arg.ArgumentReference},
		Body:          b,
	}}
}

func definitionDepth(n *ValueNode) int {
	if n == nil {
		return 0
	}
	depth := 0
	switch n.Kind() {
	case KindFunctionDefinition:
		return 1 + definitionDepth(n.FunctionDefinition.Body)
	case KindInvocation:
		for _, a := range n.Invocation.Arguments {
			depth = max(depth, definitionDepth(a))
		}
	case KindDictionary:
		for _, v := range n.Dictionary {
			depth = max(depth, definitionDepth(v))
		}
	case KindArray:
		for _, v := range n.Array {
			depth = max(depth, definitionDepth(v))
		}
	}
	return depth
}

// Describe renders a compact, deterministic one-line description of a node,
// used in logs and test failure messages.
func Describe(n *ValueNode) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind() {
	case KindConstant:
		return fmt.Sprintf("%v", n.Constant)
	case KindArgumentReference:
		return "$" + n.ArgumentReference
	case KindFunctionDefinition:
		return fmt.Sprintf("fn(%v){%s}", n.FunctionDefinition.ArgumentNames, Describe(n.FunctionDefinition.Body))
	case KindDictionary:
		keys := make([]string, 0, len(n.Dictionary))
		for k := range n.Dictionary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "{"
		for i, k := range keys {
			if i > 0 {
				s += ","
			}
			s += k + ":" + Describe(n.Dictionary[k])
		}
		return s + "}"
	case KindInvocation:
		keys := make([]string, 0, len(n.Invocation.Arguments))
		for k := range n.Invocation.Arguments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := n.Invocation.FunctionName + "("
		for i, k := range keys {
			if i > 0 {
				s += ","
			}
			s += k + "=" + Describe(n.Invocation.Arguments[k])
		}
		return s + ")"
	default:
		s := "["
		for i, v := range n.Array {
			if i > 0 {
				s += ","
			}
			s += Describe(v)
		}
		return s + "]"
	}
}
