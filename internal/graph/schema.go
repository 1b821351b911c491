// Package graph implements the GraphQL surface. It shares the auth and post
// services with the REST handlers; only the transport differs.
package graph

import graphql "github.com/graph-gophers/graphql-go"

// Schema mirrors the REST surface. Mutations that need an image take the
// staged path returned by PUT /feed/image, since GraphQL carries no files.
const Schema = `
	schema {
		query: Query
		mutation: Mutation
	}

	type Query {
		getStatus: String!
		getAllPosts: [Post!]!
		getOnePost(id: ID!): Post!
		getPagePosts(page: Int, limit: Int!): PagePosts!
	}

	type Mutation {
		signup(name: String!, email: String!, password: String!): User!
		login(email: String!, password: String!): LoginOut!
		editStatus(status: String!): String!
		createPost(title: String!, content: String!, imagePath: String!): Post!
		editPost(id: ID!, title: String!, content: String!, imagePath: String): Post!
		deletePost(id: ID!): Post!
	}

	type LoginOut {
		token: String!
		userId: ID!
	}

	type PagePosts {
		posts: [Post!]!
		totalPosts: Int!
	}

	type User {
		id: ID!
		name: String!
		email: String!
		status: String!
		posts: [Post!]!
	}

	type Creator {
		id: ID!
		name: String!
	}

	type Post {
		id: ID!
		title: String!
		content: String!
		imageUrl: String!
		creator: Creator!
		createdAt: String!
		updatedAt: String!
	}
`

// NewSchema parses the schema against the resolver. Panics on any mismatch
// between the two, so wiring bugs surface at startup, not on first query.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, r)
}
