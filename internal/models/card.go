// internal/models/card.go
package models

import "fmt"

// Kind classifies a card by how it is resolved when played.
type Kind string

const (
	KindNumber Kind = "number"
	KindAction Kind = "action"
	KindWild   Kind = "wild"
)

// Color is a card's printed color, or the color currently in force on the table.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
	Wild   Color = "wild" // printed color of wild-type cards only
)

// PlayableColors lists the four suit colors in tie-break precedence order.
var PlayableColors = []Color{Red, Blue, Green, Yellow}

// Valid reports whether c may be chosen as the color in force (any color but wild).
func (c Color) Valid() bool {
	switch c {
	case Red, Blue, Green, Yellow:
		return true
	}
	return false
}

// Face is the printed value of a card.
type Face string

const (
	Face0            Face = "0"
	Face1            Face = "1"
	Face2            Face = "2"
	Face3            Face = "3"
	Face4            Face = "4"
	Face5            Face = "5"
	Face6            Face = "6"
	Face7            Face = "7"
	Face8            Face = "8"
	Face9            Face = "9"
	FaceSkip         Face = "skip"
	FaceReverse      Face = "reverse"
	FaceDrawTwo      Face = "draw-two"
	FaceWild         Face = "wild"
	FaceWildDrawFour Face = "wild-draw-four"
)

// NumberFaces are the ten number faces in ascending order.
var NumberFaces = []Face{Face0, Face1, Face2, Face3, Face4, Face5, Face6, Face7, Face8, Face9}

// ActionFaces are the colored action faces.
var ActionFaces = []Face{FaceSkip, FaceReverse, FaceDrawTwo}

// Card is an immutable value. Two cards with the same kind, color and face are interchangeable.
type Card struct {
	Kind  Kind  `json:"kind"`
	Color Color `json:"color"`
	Face  Face  `json:"face"`
}

// NumberCard builds a colored number card.
func NumberCard(color Color, face Face) Card {
	return Card{Kind: KindNumber, Color: color, Face: face}
}

// ActionCard builds a colored skip, reverse or draw-two.
func ActionCard(color Color, face Face) Card {
	return Card{Kind: KindAction, Color: color, Face: face}
}

// WildCard builds a wild or wild-draw-four.
func WildCard(face Face) Card {
	return Card{Kind: KindWild, Color: Wild, Face: face}
}

func (c Card) IsWild() bool   { return c.Kind == KindWild }
func (c Card) IsAction() bool { return c.Kind == KindAction }
func (c Card) IsNumber() bool { return c.Kind == KindNumber }

// IsDrawStack reports whether the card may be played onto a pending draw penalty.
func (c Card) IsDrawStack() bool {
	return c.Face == FaceDrawTwo || c.Face == FaceWildDrawFour
}

func (c Card) String() string {
	if c.IsWild() {
		return string(c.Face)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Face)
}
