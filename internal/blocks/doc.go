// Package blocks implements the block decoration pipeline of a page.
//
// Authored content arrives as a <main> element whose direct <div> children
// are sections. Decoration turns that skeleton into sections with content
// wrappers and blocks: a <div> whose first class names the block. Loading a
// block attaches its stylesheet and runs the decorator registered for its
// name. Both sections and blocks track their progress in data attributes
// (data-section-status, data-block-status) moving from "initialized" through
// "loading" to "loaded", so every step can be repeated safely.
package blocks
