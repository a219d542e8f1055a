/*
Package fastbody provides one-shot consumption of message bodies.

A Body wraps a payload coming from memory, a blob, url-encoded args,
a multipart form or an arbitrary byte stream behind a single API:

    * Consuming operations - Bytes, BytesReader, Text, TextConverted,
      JSON, Blob and the decompressing variants - buffer the payload
      exactly once. A second consumption attempt fails with ErrBodyUsed.
    * Consumption is guarded with the following limits:

        * Maximum body size. Oversized bodies are rejected before
          more bytes than the limit are buffered.
        * Body read timeout.

    * Abort stops an in-flight consumption from any goroutine.
    * Clone splits an unconsumed body into two independently consumable
      bodies without re-reading the source.
    * WriteTo streams the payload into a writer without buffering it.
    * The media type is inferred from the body source when the message
      headers don't carry one.
    * Bodies in legacy charsets are converted to utf-8 with the charset
      declared in headers, html meta tags or xml declarations.
*/
package fastbody
