// Package catalog writes an assembled symbol graph to disk as a
// documentation catalog.
//
// Layout:
//
//	{out}/{Module}.catalog/
//	    {Module}.md                  landing page
//	    {module}.symbols.json        symbol graph file
//	    Endpoints/{operationID}.md   one page per endpoint
//	    Schemas/{SchemaName}.md      one page per component schema
//
// An existing catalog directory is never modified unless overwrite is
// requested. Failures are reported as ErrCatalogExists,
// *DirectoryCreationError or *FileWriteError.
package catalog
