// Package geometry computes where an edge meets the shape it is bound to.
//
// An edge end binds to a [Bindable] shape with a [Binding]: a focus in
// [-1, 1] saying how far off-center the edge aims (0 is dead center, the
// sign picks the side) and a gap saying how far from the outline the edge
// stops. [FocusAndGap] derives a binding from an existing edge and
// [BindingPoint] goes the other way, placing an edge end for a binding.
//
// Shapes may be rotated. All calculations happen in the shape's own frame,
// built with the rigid transforms of package ga, and use the symmetry of the
// supported outlines ([ShapeKinds]) to work in one quadrant.
//
// Ellipse distances use a fixed small number of projection iterations, so
// results are approximate but always finite for non-degenerate ellipses.
package geometry
