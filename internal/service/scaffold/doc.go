// Package scaffold creates an empty base template for a new module.
//
// The template gets the directories the build walks (system, META-INF) and a
// common directory for shared scripts, each kept alive in version control by
// a .gitkeep marker that the build never packages.
package scaffold
