package router

import (
	"strings"

	"github.com/vango-dev/facilityfinder/pkg/routepath"
)

// routeNode is a node in the route tree.
type routeNode struct {
	// segment is the literal this node matches (folded when case-insensitive)
	segment string

	// isParam indicates this is a parameter segment (:id)
	isParam bool

	// param is the pattern segment of a parameter node
	param routepath.Segment

	// route is the route terminating at this node
	route *Route

	// children are static segment children
	children []*routeNode

	// paramChildren are the parameter children, one per distinct constraint
	paramChildren []*routeNode
}

// newRouteNode creates a new route node.
func newRouteNode(segment string) *routeNode {
	return &routeNode{
		segment: segment,
	}
}

// findChild finds a child node with an exact segment match.
func (n *routeNode) findChild(segment string) *routeNode {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

// addChild adds or retrieves a child node for the given segment.
func (n *routeNode) addChild(segment string) *routeNode {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := newRouteNode(segment)
	n.children = append(n.children, child)
	return child
}

// addParamChild adds or retrieves the parameter child with seg's constraint.
// Capture names are per route, so "/f/:id" and "/f/:key" share a node.
func (n *routeNode) addParamChild(seg routepath.Segment) *routeNode {
	for _, child := range n.paramChildren {
		if child.param.Constraint == seg.Constraint {
			return child
		}
	}
	child := newRouteNode("")
	child.isParam = true
	child.param = seg
	n.paramChildren = append(n.paramChildren, child)
	return child
}

// insertRoute returns the node where the pattern terminates, creating the
// path to it. fold lower-cases literals.
func (n *routeNode) insertRoute(p *routepath.Pattern, fold bool) *routeNode {
	current := n
	for _, seg := range p.Segments() {
		if seg.IsParam() {
			current = current.addParamChild(seg)
			continue
		}
		current = current.addChild(foldSegment(seg.Literal, fold))
	}
	return current
}

// candidate is the best match found so far.
type candidate struct {
	route    *Route
	captures []string
}

// better reports whether r beats the current candidate: fewer parameter
// segments first, then earlier registration.
func (c *candidate) better(r *Route) bool {
	if c.route == nil {
		return true
	}
	if pr, pc := r.pattern.ParamCount(), c.route.pattern.ParamCount(); pr != pc {
		return pr < pc
	}
	return r.order < c.route.order
}

// match walks every branch that accepts the segments and records the best
// terminal route in best. captures accumulates parameter values in order.
func (n *routeNode) match(segments []string, captures []string, fold bool, best *candidate) {
	// A branch already holding more captures than the best match cannot win.
	if best.route != nil && len(captures) > best.route.pattern.ParamCount() {
		return
	}

	if len(segments) == 0 {
		if n.route != nil && best.better(n.route) {
			best.route = n.route
			best.captures = append(best.captures[:0], captures...)
		}
		return
	}

	segment := segments[0]
	remaining := segments[1:]

	// Try exact match first
	if child := n.findChild(foldSegment(segment, fold)); child != nil {
		child.match(remaining, captures, fold, best)
	}

	// Try parameter matches
	for _, child := range n.paramChildren {
		if child.param.Accepts(segment) {
			child.match(remaining, append(captures, segment), fold, best)
		}
	}
}

func foldSegment(s string, fold bool) string {
	if fold {
		return strings.ToLower(s)
	}
	return s
}
