// Package server serves live documents over HTTP and WebSocket.
//
// Every WebSocket connection owns a session: a private document parsed from
// the shell markup, a reactive graph, an event router and a slot registry,
// all mounted by a MountFunc and driven by a single event loop. The browser
// runs a small client script that forwards DOM events by child-index path and
// applies the mutation ops the session sends back.
//
// # Wire protocol
//
// Messages are JSON objects tagged by "t":
//
//	server → client  {"t":"init","session":"…","html":"…"}
//	client → server  {"t":"event","type":"click","path":[0,2,1],"data":{…}}
//	server → client  {"t":"ops","ops":[{"k":"text","p":[0,2,1,0],"v":"…"}],"prevented":false}
//	server → client  {"t":"error","code":"P002","message":"…"}
//	client → server  {"t":"ping"}   server → client {"t":"pong"}
//
// Paths are relative to the body of the session document, which the client
// mirrors under its #bind-root element.
//
// # Integration
//
//	srv, err := server.New(cfg, shell, mount)
//	if err != nil {
//	    return err
//	}
//	return srv.ListenAndServe(ctx)
//
// Handler returns the chi router so the server can also be mounted into an
// existing mux.
package server
