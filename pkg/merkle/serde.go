package merkle

import (
	"encoding/hex"
	"fmt"
)

// serializedNode is the JSON-friendly shape exchanged over the wire: a leaf
// carries its hex-encoded data, an internal node carries its two children.
// This mirrors the nested-array-or-string encoding the reference
// implementation round-trips through mt2obj/obj2mt, translated into a
// typed Go struct instead of an untyped list.
type serializedNode struct {
	Data     string            `json:"data,omitempty"`
	Children []*serializedNode `json:"children,omitempty"`
}

// MT2Obj converts a tree into a JSON-marshalable structure suitable for
// sending over p2pstream: leaves become hex strings, internal nodes become
// two-element children lists.
func MT2Obj(n *Node) any {
	return mt2obj(n)
}

func mt2obj(n *Node) *serializedNode {
	if n.IsLeaf() {
		return &serializedNode{Data: hex.EncodeToString(n.Leaf.Data)}
	}
	return &serializedNode{Children: []*serializedNode{mt2obj(n.Left), mt2obj(n.Right)}}
}

// Obj2MT reconstructs a tree from the structure produced by MT2Obj,
// recomputing every digest with digestFn as it goes (the wire format never
// carries digests, only raw leaf bytes, so the receiver always
// independently recomputes them).
func Obj2MT(obj any, digestFn DigestFunc) (*Node, error) {
	sn, ok := obj.(*serializedNode)
	if !ok {
		converted, err := toSerializedNode(obj)
		if err != nil {
			return nil, err
		}
		sn = converted
	}
	leafIndex := 0
	return obj2mt(sn, digestFn, &leafIndex)
}

func obj2mt(sn *serializedNode, digestFn DigestFunc, leafIndex *int) (*Node, error) {
	if len(sn.Children) == 0 {
		data, err := hex.DecodeString(sn.Data)
		if err != nil {
			return nil, fmt.Errorf("merkle: invalid leaf hex encoding: %w", err)
		}
		leaf := &Leaf{Data: data, Index: *leafIndex}
		*leafIndex++
		return &Node{Leaf: leaf, digest: digestFn(data)}, nil
	}
	if len(sn.Children) != 2 {
		return nil, fmt.Errorf("merkle: internal node must have exactly 2 children, got %d", len(sn.Children))
	}
	left, err := obj2mt(sn.Children[0], digestFn, leafIndex)
	if err != nil {
		return nil, err
	}
	right, err := obj2mt(sn.Children[1], digestFn, leafIndex)
	if err != nil {
		return nil, err
	}
	return &Node{Left: left, Right: right, digest: digestFn(left.digest[:], right.digest[:])}, nil
}

// toSerializedNode accepts the generic map[string]any/[]any shape produced
// by encoding/json.Unmarshal into `any` (as arrives from p2pstream, which
// decodes wire JSON before handing it to protocol code) and converts it
// into the typed serializedNode tree.
func toSerializedNode(obj any) (*serializedNode, error) {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("merkle: cannot decode tree node of type %T", obj)
	}
	if data, ok := m["data"].(string); ok {
		return &serializedNode{Data: data}, nil
	}
	rawChildren, ok := m["children"].([]any)
	if !ok {
		return nil, fmt.Errorf("merkle: tree node has neither data nor children")
	}
	sn := &serializedNode{}
	for _, rc := range rawChildren {
		child, err := toSerializedNode(rc)
		if err != nil {
			return nil, err
		}
		sn.Children = append(sn.Children, child)
	}
	return sn, nil
}
