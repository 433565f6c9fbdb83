package models

// DefaultContent is loaded into a fresh session and after the bound
// document is deleted.
const DefaultContent = `// Welcome to Rapid Typst!
// Start writing your document below

= My First Document

This is a paragraph with *bold* and _italic_ text.

== Section One

Here's some content for the first section.

- List item one
- List item two
- List item three

== Section Two

You can use math: $x^2 + y^2 = z^2$

#align(center)[
  #text(size: 16pt, weight: "bold")[Centered Text]
]
`
